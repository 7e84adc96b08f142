package models

import (
	"time"

	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

// BlockingStatuses lists the states whose intervals make a slot unavailable.
var BlockingStatuses = []BookingStatus{BookingConfirmed}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
// COMPLETED and CANCELLED are terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Booking is a student's reservation of a tutor interval on a date.
type Booking struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	TutorID   string           `db:"tutor_id" json:"tutor_id"`
	Date      time.Time        `db:"booking_date" json:"date"`
	StartTime scheduling.Clock `db:"start_time" json:"start_time"`
	EndTime   scheduling.Clock `db:"end_time" json:"end_time"`
	Status    BookingStatus    `db:"status" json:"status"`
	Price     float64          `db:"price" json:"price"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// Interval returns the booked time-of-day range.
func (b Booking) Interval() scheduling.Interval {
	return scheduling.Interval{Start: b.StartTime, End: b.EndTime}
}

// BookingView is a booking joined with the display names of both parties.
type BookingView struct {
	Booking
	StudentUsername string `db:"student_username" json:"student_username"`
	TutorUsername   string `db:"tutor_username" json:"tutor_username"`
	TutorUserID     string `db:"tutor_user_id" json:"tutor_user_id"`
}

// BookingScope selects upcoming or past bookings in list queries.
type BookingScope string

const (
	ScopeUpcoming BookingScope = "upcoming"
	ScopePast     BookingScope = "past"
)

// BookingFilter narrows booking lists to one participant.
type BookingFilter struct {
	StudentID string
	TutorID   string
	Scope     BookingScope
	Today     time.Time
}

// CreateBookingRequest proposes a session.
type CreateBookingRequest struct {
	TutorID   string `json:"tutor_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}
