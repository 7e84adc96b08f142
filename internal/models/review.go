package models

import "time"

// Review is a student's rating of a completed session.
type Review struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	TutorID   string    `db:"tutor_id" json:"tutor_id"`
	BookingID string    `db:"booking_id" json:"booking_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReviewView adds the reviewer's username.
type ReviewView struct {
	Review
	StudentUsername string `db:"student_username" json:"student_username"`
}

// CreateReviewRequest rates a completed booking.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=500"`
}
