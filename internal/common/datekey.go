package common

import (
	"fmt"
	"time"
)

// DateKeyLayout is the canonical date key format used throughout the system.
// Content records, runs, and archive paths are all keyed by DD-MM-YYYY.
const DateKeyLayout = "02-01-2006"

// ParseDateKey parses a DD-MM-YYYY date key into a time.Time.
// Keys must be zero-padded; "2-8-2025" is rejected.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.Parse(DateKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q (expected DD-MM-YYYY): %w", key, err)
	}
	// time.Parse accepts unpadded day/month fields, round-trip to enforce padding
	if t.Format(DateKeyLayout) != key {
		return time.Time{}, fmt.Errorf("invalid date key %q (expected DD-MM-YYYY)", key)
	}
	return t, nil
}

// FormatDateKey formats a time as a DD-MM-YYYY date key
func FormatDateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// TodayDateKey returns the date key for the current local date
func TodayDateKey() string {
	return time.Now().Format(DateKeyLayout)
}
