package scheduling

import "strings"

// SlotPolicy selects how occupied time is removed from availability windows.
type SlotPolicy string

const (
	// SlotPolicyWholeWindow drops a window entirely when any booking overlaps it.
	SlotPolicyWholeWindow SlotPolicy = "whole_window"
	// SlotPolicySplit subtracts bookings from a window and offers the remaining pieces.
	SlotPolicySplit SlotPolicy = "split"
)

// ParseSlotPolicy maps configuration values to a policy, defaulting to whole-window.
func ParseSlotPolicy(raw string) SlotPolicy {
	switch SlotPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case SlotPolicySplit:
		return SlotPolicySplit
	default:
		return SlotPolicyWholeWindow
	}
}

// ResolveSlots computes the bookable residual of windows after removing occupied
// intervals. The result is ordered by start time and never aliases the inputs.
func ResolveSlots(windows, occupied []Interval, policy SlotPolicy) []Interval {
	ordered := append([]Interval(nil), windows...)
	SortIntervals(ordered)

	result := make([]Interval, 0, len(ordered))
	if policy == SlotPolicySplit {
		busy := append([]Interval(nil), occupied...)
		SortIntervals(busy)
		for _, w := range ordered {
			result = append(result, subtract(w, busy)...)
		}
		return result
	}

	for _, w := range ordered {
		if !OverlapsAny(w, occupied) {
			result = append(result, w)
		}
	}
	return result
}

// subtract removes sorted busy intervals from w.
func subtract(w Interval, busy []Interval) []Interval {
	var pieces []Interval
	cursor := w.Start
	for _, b := range busy {
		if !w.Overlaps(b) {
			continue
		}
		if b.Start > cursor {
			pieces = append(pieces, Interval{Start: cursor, End: b.Start})
		}
		if b.End > cursor {
			cursor = b.End
		}
		if cursor >= w.End {
			return pieces
		}
	}
	if cursor < w.End {
		pieces = append(pieces, Interval{Start: cursor, End: w.End})
	}
	return pieces
}
