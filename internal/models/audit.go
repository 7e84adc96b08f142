package models

import "time"

// Audit actions recorded for the booking lifecycle and profile changes.
const (
	AuditActionBookingCreate   = "BOOKING_CREATE"
	AuditActionPaymentCapture  = "PAYMENT_CAPTURE"
	AuditActionBookingComplete = "BOOKING_COMPLETE"
	AuditActionBookingCancel   = "BOOKING_CANCEL"
	AuditActionWindowCreate    = "AVAILABILITY_CREATE"
	AuditActionWindowDelete    = "AVAILABILITY_DELETE"
	AuditActionProfileUpdate   = "TUTOR_PROFILE_UPDATE"
	AuditActionReviewCreate    = "REVIEW_CREATE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Status     int       `db:"status" json:"status"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
