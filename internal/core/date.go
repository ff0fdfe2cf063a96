package core

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate parses a calendar date string. It accepts plain YYYY-MM-DD and
// tolerates a trailing timestamp (RFC3339 style) by reading only the date
// prefix. The second return value reports validity; invalid dates must be
// excluded from date-windowed filters rather than treated as zero.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return time.Time{}, false
	}
	d, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// FormatDate renders a time as the canonical calendar date string.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// DateOnly truncates a time to midnight UTC of the same calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
