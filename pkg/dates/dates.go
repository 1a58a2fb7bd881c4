// Package dates centralizes the date formats used by the Merit Aktiva API.
// Merit expects YYYYMMDD for all date parameters and YYYYMMDDHHMMSS (UTC)
// for the authentication timestamp, while responses carry ISO-8601 values.
package dates

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the format for Merit date parameters (YYYYMMDD).
	DateLayout = "20060102"

	// TimestampLayout is the format for the auth timestamp (YYYYMMDDHHMMSS).
	TimestampLayout = "20060102150405"
)

// FormatDate formats a time as a Merit date parameter.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a Merit date parameter (YYYYMMDD).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse merit date %q: %w", s, err)
	}
	return t, nil
}

// AuthTimestamp formats a time as the Merit auth timestamp. The API requires
// UTC; times in other locations are converted.
func AuthTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ConvertChangedDate normalizes a date string to the YYYYMMDD parameter
// format. Merit returns ChangedDate values in ISO-8601, but callers may also
// pass values already in parameter format.
func ConvertChangedDate(s string) (string, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return FormatDate(t), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return FormatDate(t), nil
		}
	}
	return "", fmt.Errorf("date %q matches neither merit format (YYYYMMDD) nor ISO-8601", s)
}

// DefaultPeriod returns the default extraction period: the trailing twelve
// months ending now.
func DefaultPeriod(now time.Time) (start, end time.Time) {
	return now.AddDate(0, 0, -365), now
}
