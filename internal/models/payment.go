package models

import "time"

// PaymentStatus is the state of a booking's payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Payment is the single payment record of a booking. Amount never changes
// after capture; a refund only moves the status.
type Payment struct {
	ID            string        `db:"id" json:"id"`
	BookingID     string        `db:"booking_id" json:"booking_id"`
	Amount        float64       `db:"amount" json:"amount"`
	Currency      string        `db:"currency" json:"currency"`
	PlatformFee   float64       `db:"platform_fee" json:"platform_fee"`
	TutorPayout   float64       `db:"tutor_payout" json:"tutor_payout"`
	Status        PaymentStatus `db:"status" json:"status"`
	TransactionID string        `db:"transaction_id" json:"transaction_id"`
	PaymentDate   time.Time     `db:"payment_date" json:"payment_date"`
}

// CapturePaymentRequest is the mock card form.
type CapturePaymentRequest struct {
	CardNumber string `json:"card_number" validate:"required,len=16,numeric"`
	Expiry     string `json:"expiry" validate:"required,len=5"`
	CVC        string `json:"cvc" validate:"required,len=3,numeric"`
	CardHolder string `json:"card_holder" validate:"required,max=100"`
}
