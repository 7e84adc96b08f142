package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/pkg/database"
)

const paymentColumns = `id, booking_id, amount, currency, platform_fee, tutor_payout, status, transaction_id, payment_date`

// PaymentRepository stores mock payments and tutor earnings.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// FindByBookingID returns the payment of a booking.
func (r *PaymentRepository) FindByBookingID(ctx context.Context, bookingID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, bookingID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &payment, nil
}

// Capture inserts the payment and confirms its PENDING booking atomically.
// ErrDuplicate means the booking already has a payment; ErrStatusChanged means
// the booking left PENDING; ErrSlotTaken means another confirmed booking holds
// an overlapping window.
func (r *PaymentRepository) Capture(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const insert = `INSERT INTO payments (id, booking_id, amount, currency, platform_fee, tutor_payout, status, transaction_id, payment_date) VALUES (:id, :booking_id, :amount, :currency, :platform_fee, :tutor_payout, :status, :transaction_id, :payment_date)`
		if _, err := tx.NamedExecContext(ctx, insert, payment); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("create payment: %w", err)
		}
		return updateBookingStatus(ctx, tx, payment.BookingID, models.BookingPending, models.BookingConfirmed)
	})
}

// ListTutorEarnings returns COMPLETED payments for a tutor, oldest first.
func (r *PaymentRepository) ListTutorEarnings(ctx context.Context, tutorID string) ([]models.EarningsEntry, error) {
	const query = `SELECT b.id AS booking_id, b.booking_date, u.username AS student_username, p.amount, p.platform_fee, p.tutor_payout, p.currency, p.payment_date FROM payments p JOIN bookings b ON b.id = p.booking_id JOIN users u ON u.id = b.student_id WHERE b.tutor_id = $1 AND p.status = $2 ORDER BY p.payment_date ASC`
	var entries []models.EarningsEntry
	if err := r.db.SelectContext(ctx, &entries, query, tutorID, models.PaymentCompleted); err != nil {
		return nil, fmt.Errorf("list tutor earnings: %w", err)
	}
	return entries, nil
}
