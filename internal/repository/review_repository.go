package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
)

// ReviewRepository stores session reviews.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs a ReviewRepository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. ErrDuplicate means the student already reviewed
// the booking.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO reviews (id, student_id, tutor_id, booking_id, rating, comment, created_at) VALUES (:id, :student_id, :tutor_id, :booking_id, :rating, :comment, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// Exists reports whether the student has reviewed the booking.
func (r *ReviewRepository) Exists(ctx context.Context, studentID, bookingID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM reviews WHERE student_id = $1 AND booking_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, bookingID); err != nil {
		return false, fmt.Errorf("check review: %w", err)
	}
	return exists, nil
}

// ListByTutor returns a tutor's reviews, newest first.
func (r *ReviewRepository) ListByTutor(ctx context.Context, tutorID string) ([]models.ReviewView, error) {
	const query = `SELECT r.id, r.student_id, r.tutor_id, r.booking_id, r.rating, r.comment, r.created_at, u.username AS student_username FROM reviews r JOIN users u ON u.id = r.student_id WHERE r.tutor_id = $1 ORDER BY r.created_at DESC`
	var reviews []models.ReviewView
	if err := r.db.SelectContext(ctx, &reviews, query, tutorID); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}
