package scheduling

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidInterval is returned when an interval does not start before it ends.
var ErrInvalidInterval = errors.New("interval start must be before end")

// Interval is a half-open time-of-day range [Start, End).
type Interval struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

// NewInterval validates start < end.
func NewInterval(start, end Clock) (Interval, error) {
	if start >= end {
		return Interval{}, fmt.Errorf("%w: %s-%s", ErrInvalidInterval, start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// ParseInterval parses two "HH:MM" boundaries into an interval.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(s, e)
}

// Overlaps reports whether the two ranges share any instant. Ranges that only
// touch at a boundary do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Contains reports whether inner lies entirely within i.
func (i Interval) Contains(inner Interval) bool {
	return i.Start <= inner.Start && inner.End <= i.End
}

// Minutes returns the length of the interval in minutes.
func (i Interval) Minutes() int {
	return int(i.End - i.Start)
}

// Hours returns the fractional length of the interval in hours.
func (i Interval) Hours() float64 {
	return float64(i.Minutes()) / 60
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

// Overlaps is the free-function form of Interval.Overlaps.
func Overlaps(a, b Interval) bool { return a.Overlaps(b) }

// Contains is the free-function form of Interval.Contains.
func Contains(outer, inner Interval) bool { return outer.Contains(inner) }

// DurationHours returns the length of i in hours.
func DurationHours(i Interval) float64 { return i.Hours() }

// SortIntervals orders intervals by start, then end, in place.
func SortIntervals(items []Interval) {
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].Start != items[b].Start {
			return items[a].Start < items[b].Start
		}
		return items[a].End < items[b].End
	})
}

// OverlapsAny reports whether candidate overlaps any of items.
func OverlapsAny(candidate Interval, items []Interval) bool {
	for _, item := range items {
		if candidate.Overlaps(item) {
			return true
		}
	}
	return false
}
