package utils

import "time"

// Application Constants
const (
	AppName = "HotelOps Chauffeur"

	DefaultCacheTTL = 15 * time.Minute
	DefaultLockTTL  = 10 * time.Second

	MaxLocationLength    = 255
	MaxDescriptionLength = 2000
)

// Envelope statuses
const (
	StatusOK      = "OK"
	StatusCreated = "CREATED"
	StatusError   = "ERROR"
)

// Error Messages
const (
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrValidationFailed = "validation failed"
	ErrInvalidID        = "identifier must be a positive integer"
)

// Cache Keys
const (
	CacheRideRequestPrefix = "demande:"
	CacheTripPrefix        = "trajet:"
	LockTripCreationPrefix = "lock:trajet:demande:"
)

// Gin context keys
const (
	ContextActorKey     = "actor"
	ContextRequestIDKey = "request_id"
)
