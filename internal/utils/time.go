package utils

import (
	"fmt"
	"strings"
	"time"
)

const DayLayout = "2006-01-02"

func ParseTimeISO(timeStr string) (time.Time, error) {
	return time.Parse(time.RFC3339, timeStr)
}

// ParseDateBound parses a query-string date bound. RFC3339 timestamps are
// used as-is; a bare YYYY-MM-DD covers the whole day, so it resolves to the
// start of the day for a lower bound and the end of the day for an upper one.
func ParseDateBound(value string, upper bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := ParseTimeISO(value); err == nil {
		return t.UTC(), nil
	}

	day, err := time.Parse(DayLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC3339", value)
	}
	if upper {
		return EndOfDay(day), nil
	}
	return StartOfDay(day), nil
}

func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 59, 999999999, t.Location())
}

// DayKey returns the UTC calendar day of t.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayLayout)
}
