package scheduling

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedTime is returned when a time-of-day value cannot be parsed.
var ErrMalformedTime = errors.New("malformed time of day")

// Clock is a time of day with minute precision, stored as minutes after midnight.
type Clock int

const minutesPerDay = 24 * 60

var clockLayouts = []string{"15:04", "15:04:05"}

// NewClock builds a clock from hour and minute components.
func NewClock(hour, minute int) (Clock, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %02d:%02d", ErrMalformedTime, hour, minute)
	}
	return Clock(hour*60 + minute), nil
}

// MustClock is NewClock for literals known to be valid.
func MustClock(hour, minute int) Clock {
	c, err := NewClock(hour, minute)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseClock parses a 24h "HH:MM" value. "HH:MM:SS" is accepted with seconds discarded.
func ParseClock(raw string) (Clock, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Clock(t.Hour()*60 + t.Minute()), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrMalformedTime, raw)
}

// Hour returns the hour component.
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute component.
func (c Clock) Minute() int { return int(c) % 60 }

// String formats the clock as "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Format12h renders the clock as "hh:mm AM/PM" for display.
func (c Clock) Format12h() string {
	t := time.Date(2000, time.January, 1, c.Hour(), c.Minute(), 0, 0, time.UTC)
	return t.Format("03:04 PM")
}

// On anchors the clock to the calendar day of date.
func (c Clock) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, date.Location())
}

// MarshalJSON encodes the clock as "HH:MM".
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes "HH:MM".
func (c *Clock) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedTime, string(data))
	}
	parsed, err := ParseClock(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value stores the clock in a TIME column.
func (c Clock) Value() (driver.Value, error) {
	return fmt.Sprintf("%02d:%02d:00", c.Hour(), c.Minute()), nil
}

// Scan reads TIME columns returned either as text or as time.Time.
func (c *Clock) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*c = Clock(v.Hour()*60 + v.Minute())
		return nil
	case []byte:
		return c.scanText(string(v))
	case string:
		return c.scanText(v)
	case nil:
		return fmt.Errorf("%w: null", ErrMalformedTime)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrMalformedTime, src)
	}
}

func (c *Clock) scanText(raw string) error {
	// TIME columns may carry fractional seconds.
	if idx := strings.IndexByte(raw, '.'); idx > 0 {
		raw = raw[:idx]
	}
	parsed, err := ParseClock(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
