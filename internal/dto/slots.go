package dto

import "github.com/noah-isme/lingua-tutor-api/internal/scheduling"

// Slot is a bookable interval rendered for clients.
type Slot struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Display string `json:"display"`
}

// NewSlot renders an interval as HH:MM bounds plus a 12-hour label.
func NewSlot(i scheduling.Interval) Slot {
	return Slot{
		Start:   i.Start.String(),
		End:     i.End.String(),
		Display: i.Start.Format12h() + " - " + i.End.Format12h(),
	}
}

// NewSlots renders intervals in order.
func NewSlots(items []scheduling.Interval) []Slot {
	out := make([]Slot, 0, len(items))
	for _, i := range items {
		out = append(out, NewSlot(i))
	}
	return out
}

// DaySlots lists free slots on one date.
type DaySlots struct {
	Date    string `json:"date"`
	DayName string `json:"day_name"`
	Slots   []Slot `json:"slots"`
}

// BookableDate is a date whose weekday has availability.
type BookableDate struct {
	Date    string `json:"date"`
	DayName string `json:"day_name"`
}

// WindowView is an availability window as shown on the tutor's schedule.
type WindowView struct {
	ID      string `json:"id"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Display string `json:"display"`
}

// DaySchedule groups a tutor's windows for one weekday.
type DaySchedule struct {
	DayOfWeek int          `json:"day_of_week"`
	DayName   string       `json:"day_name"`
	Windows   []WindowView `json:"windows"`
}
