package scheduling

import "errors"

var (
	// ErrWindowOverlap is returned when a new availability window collides with an active one.
	ErrWindowOverlap = errors.New("availability window overlaps an existing window")
	// ErrOutsideAvailability is returned when no single window contains a proposed session.
	ErrOutsideAvailability = errors.New("requested time is outside the tutor's availability")
	// ErrSlotConflict is returned when a proposed session overlaps an occupied interval.
	ErrSlotConflict = errors.New("requested time overlaps an existing booking")
)

// CheckWindow validates a candidate availability window against the active
// windows already declared for the same tutor and weekday.
func CheckWindow(existing []Interval, candidate Interval) error {
	if candidate.Start >= candidate.End {
		return ErrInvalidInterval
	}
	if OverlapsAny(candidate, existing) {
		return ErrWindowOverlap
	}
	return nil
}

// Admit validates a proposed session: it must fit entirely inside one window and
// must not overlap any occupied interval.
func Admit(windows, occupied []Interval, proposed Interval) error {
	if proposed.Start >= proposed.End {
		return ErrInvalidInterval
	}
	contained := false
	for _, w := range windows {
		if w.Contains(proposed) {
			contained = true
			break
		}
	}
	if !contained {
		return ErrOutsideAvailability
	}
	if OverlapsAny(proposed, occupied) {
		return ErrSlotConflict
	}
	return nil
}
