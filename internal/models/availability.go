package models

import (
	"time"

	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
)

// AvailabilityWindow is a recurring weekly open interval for one tutor.
type AvailabilityWindow struct {
	ID        string           `db:"id" json:"id"`
	TutorID   string           `db:"tutor_id" json:"tutor_id"`
	DayOfWeek int              `db:"day_of_week" json:"day_of_week"`
	StartTime scheduling.Clock `db:"start_time" json:"start_time"`
	EndTime   scheduling.Clock `db:"end_time" json:"end_time"`
	Active    bool             `db:"active" json:"active"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// Interval returns the window's time-of-day range.
func (w AvailabilityWindow) Interval() scheduling.Interval {
	return scheduling.Interval{Start: w.StartTime, End: w.EndTime}
}

// CreateAvailabilityRequest declares a new weekly window.
type CreateAvailabilityRequest struct {
	DayOfWeek *int   `json:"day_of_week" validate:"required,gte=0,lte=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}
