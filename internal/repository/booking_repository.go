package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
	"github.com/noah-isme/lingua-tutor-api/pkg/database"
)

const bookingColumns = `id, student_id, tutor_id, booking_date, start_time, end_time, status, price, created_at, updated_at`

const bookingViewSelect = `SELECT b.id, b.student_id, b.tutor_id, b.booking_date, b.start_time, b.end_time, b.status, b.price, b.created_at, b.updated_at, su.username AS student_username, tu.username AS tutor_username, tp.user_id AS tutor_user_id FROM bookings b JOIN users su ON su.id = b.student_id JOIN tutor_profiles tp ON tp.id = b.tutor_id JOIN users tu ON tu.id = tp.user_id`

// BookingRepository is the booking calendar: it stores bookings and answers
// occupancy queries per tutor and date.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a booking.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	const query = `INSERT INTO bookings (id, student_id, tutor_id, booking_date, start_time, end_time, status, price, created_at, updated_at) VALUES (:id, :student_id, :tutor_id, :booking_date, :start_time, :end_time, :status, :price, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// FindByID returns a booking by identifier.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return &booking, nil
}

// FindView returns a booking joined with both participants.
func (r *BookingRepository) FindView(ctx context.Context, id string) (*models.BookingView, error) {
	query := bookingViewSelect + ` WHERE b.id = $1`
	var view models.BookingView
	if err := r.db.GetContext(ctx, &view, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find booking view: %w", err)
	}
	return &view, nil
}

// ListOccupied returns the intervals of a tutor's bookings on date whose
// status is in statuses, ordered by start.
func (r *BookingRepository) ListOccupied(ctx context.Context, tutorID string, date time.Time, statuses []models.BookingStatus) ([]scheduling.Interval, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	const query = `SELECT start_time, end_time FROM bookings WHERE tutor_id = $1 AND booking_date = $2 AND status = ANY($3) ORDER BY start_time`
	var rows []struct {
		Start scheduling.Clock `db:"start_time"`
		End   scheduling.Clock `db:"end_time"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, tutorID, scheduling.FormatDate(date), pq.Array(names)); err != nil {
		return nil, fmt.Errorf("list occupied intervals: %w", err)
	}

	out := make([]scheduling.Interval, 0, len(rows))
	for _, row := range rows {
		out = append(out, scheduling.Interval{Start: row.Start, End: row.End})
	}
	return out, nil
}

// List returns bookings for one participant. Upcoming means PENDING or
// CONFIRMED on or after filter.Today; past means COMPLETED.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.BookingView, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("b.student_id = $%d", len(args)))
	}
	if filter.TutorID != "" {
		args = append(args, filter.TutorID)
		conditions = append(conditions, fmt.Sprintf("b.tutor_id = $%d", len(args)))
	}

	order := "b.booking_date DESC, b.start_time DESC"
	switch filter.Scope {
	case models.ScopeUpcoming:
		args = append(args, pq.Array([]string{string(models.BookingPending), string(models.BookingConfirmed)}))
		conditions = append(conditions, fmt.Sprintf("b.status = ANY($%d)", len(args)))
		args = append(args, scheduling.FormatDate(filter.Today))
		conditions = append(conditions, fmt.Sprintf("b.booking_date >= $%d", len(args)))
		order = "b.booking_date ASC, b.start_time ASC"
	case models.ScopePast:
		args = append(args, string(models.BookingCompleted))
		conditions = append(conditions, fmt.Sprintf("b.status = $%d", len(args)))
	}

	query := bookingViewSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY " + order

	var views []models.BookingView
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return views, nil
}

// UpdateStatus moves a booking from one status to another. It returns
// ErrStatusChanged when the row is no longer in from.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) error {
	return updateBookingStatus(ctx, r.db, id, from, to)
}

// Cancel moves the booking to CANCELLED and refunds a COMPLETED payment in one
// transaction. It reports whether a payment was refunded.
func (r *BookingRepository) Cancel(ctx context.Context, id string, from models.BookingStatus) (bool, error) {
	refunded := false
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := updateBookingStatus(ctx, tx, id, from, models.BookingCancelled); err != nil {
			return err
		}
		const refund = `UPDATE payments SET status = $2 WHERE booking_id = $1 AND status = $3`
		res, err := tx.ExecContext(ctx, refund, id, models.PaymentRefunded, models.PaymentCompleted)
		if err != nil {
			return fmt.Errorf("refund payment: %w", err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected > 0 {
			refunded = true
		}
		return nil
	})
	return refunded, err
}

func updateBookingStatus(ctx context.Context, exec sqlx.ExecerContext, id string, from, to models.BookingStatus) error {
	const query = `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	res, err := exec.ExecContext(ctx, query, id, to, time.Now().UTC(), from)
	if err != nil {
		if isExclusionViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("update booking status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if affected == 0 {
		return ErrStatusChanged
	}
	return nil
}
