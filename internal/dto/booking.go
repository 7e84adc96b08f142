package dto

import (
	"time"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
)

// PaymentView is the client-facing payment record.
type PaymentView struct {
	ID            string               `json:"id"`
	Amount        float64              `json:"amount"`
	Currency      string               `json:"currency"`
	PlatformFee   float64              `json:"platform_fee"`
	TutorPayout   float64              `json:"tutor_payout"`
	Status        models.PaymentStatus `json:"status"`
	TransactionID string               `json:"transaction_id"`
	PaymentDate   time.Time            `json:"payment_date"`
}

// BookingResponse is a booking with calendar fields rendered as strings.
type BookingResponse struct {
	ID              string               `json:"id"`
	StudentID       string               `json:"student_id"`
	StudentUsername string               `json:"student_username,omitempty"`
	TutorID         string               `json:"tutor_id"`
	TutorUsername   string               `json:"tutor_username,omitempty"`
	Date            string               `json:"date"`
	DayName         string               `json:"day_name"`
	StartTime       string               `json:"start_time"`
	EndTime         string               `json:"end_time"`
	Display         string               `json:"display"`
	DurationHours   float64              `json:"duration_hours"`
	Status          models.BookingStatus `json:"status"`
	Price           float64              `json:"price"`
	Payment         *PaymentView         `json:"payment,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

// NewBookingResponse renders b and, when present, its payment.
func NewBookingResponse(b models.Booking, payment *models.Payment) BookingResponse {
	iv := b.Interval()
	resp := BookingResponse{
		ID:            b.ID,
		StudentID:     b.StudentID,
		TutorID:       b.TutorID,
		Date:          scheduling.FormatDate(b.Date),
		DayName:       scheduling.DayName(scheduling.DayOfWeek(b.Date)),
		StartTime:     iv.Start.String(),
		EndTime:       iv.End.String(),
		Display:       iv.Start.Format12h() + " - " + iv.End.Format12h(),
		DurationHours: iv.Hours(),
		Status:        b.Status,
		Price:         b.Price,
		CreatedAt:     b.CreatedAt,
	}
	if payment != nil {
		resp.Payment = &PaymentView{
			ID:            payment.ID,
			Amount:        payment.Amount,
			Currency:      payment.Currency,
			PlatformFee:   payment.PlatformFee,
			TutorPayout:   payment.TutorPayout,
			Status:        payment.Status,
			TransactionID: payment.TransactionID,
			PaymentDate:   payment.PaymentDate,
		}
	}
	return resp
}

// NewBookingViewResponse renders a joined booking row.
func NewBookingViewResponse(v models.BookingView) BookingResponse {
	resp := NewBookingResponse(v.Booking, nil)
	resp.StudentUsername = v.StudentUsername
	resp.TutorUsername = v.TutorUsername
	return resp
}
