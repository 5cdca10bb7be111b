package interfaces

import "errors"

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleState is returned by guarded updates when the record is no
	// longer in the state the caller expected.
	ErrStaleState = errors.New("record state changed")
)
