package workorder

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date wire format for stage dates.
const DateLayout = "2006-01-02"

// ParseDate converts a YYYY-MM-DD string into a UTC midnight time. A blank
// value yields the zero time, which the engine treats as "clear".
func ParseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(DateLayout, trimmed); err == nil {
		return t, nil
	}
	// Timestamps stored by older clients carry a time component.
	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return TruncateDate(t), nil
	}
	return time.Time{}, E("parse date", ErrValidation, fmt.Errorf("date %q must use YYYY-MM-DD", value))
}

// FormatDate renders a stage date. The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// TruncateDate drops the time-of-day component, keeping the calendar day as
// seen in UTC.
func TruncateDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days elapsed from start to end, rounded down.
func DaysBetween(start, end time.Time) int {
	if end.Before(start) {
		return -DaysBetween(end, start)
	}
	return int(end.Sub(start) / (24 * time.Hour))
}
