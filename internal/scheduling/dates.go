package scheduling

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ErrMalformedDate is returned when a calendar date cannot be parsed.
var ErrMalformedDate = errors.New("malformed date")

// DaysPerWeek bounds day-of-week values to [0, DaysPerWeek).
const DaysPerWeek = 7

var dayNames = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ParseDate parses a "YYYY-MM-DD" value as a UTC calendar day.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
	}
	return t, nil
}

// FormatDate renders a calendar day as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Truncate drops the time-of-day part of t, keeping its calendar day in UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayOfWeek maps a date to 0 = Monday ... 6 = Sunday.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % DaysPerWeek
}

// ValidDayOfWeek reports whether day is within [0, 6].
func ValidDayOfWeek(day int) bool {
	return day >= 0 && day < DaysPerWeek
}

// DayName returns the English name for a Monday-based day index.
func DayName(day int) string {
	if !ValidDayOfWeek(day) {
		return ""
	}
	return dayNames[day]
}

// DateRange returns days consecutive calendar days starting at from.
func DateRange(from time.Time, days int) []time.Time {
	if days <= 0 {
		return nil
	}
	start := Truncate(from)
	out := make([]time.Time, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, start.AddDate(0, 0, i))
	}
	return out
}
