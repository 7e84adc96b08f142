package dto

import (
	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
)

// EarningsResponse is the tutor earnings page payload.
type EarningsResponse struct {
	Currency string                   `json:"currency"`
	Total    float64                  `json:"total"`
	Monthly  []models.MonthlyEarnings `json:"monthly"`
	Entries  []EarningsRow            `json:"entries"`
}

// EarningsRow is one credited session.
type EarningsRow struct {
	BookingID   string  `json:"booking_id"`
	Date        string  `json:"date"`
	Student     string  `json:"student"`
	Amount      float64 `json:"amount"`
	PlatformFee float64 `json:"platform_fee"`
	Payout      float64 `json:"payout"`
}

// NewEarningsResponse flattens a summary for the earnings page.
func NewEarningsResponse(s *models.EarningsSummary) EarningsResponse {
	resp := EarningsResponse{
		Currency: s.Currency,
		Total:    s.Total,
		Monthly:  s.Monthly,
		Entries:  make([]EarningsRow, 0, len(s.Entries)),
	}
	for _, e := range s.Entries {
		resp.Entries = append(resp.Entries, EarningsRow{
			BookingID:   e.BookingID,
			Date:        scheduling.FormatDate(e.BookingDate),
			Student:     e.StudentUsername,
			Amount:      e.Amount,
			PlatformFee: e.PlatformFee,
			Payout:      e.TutorPayout,
		})
	}
	return resp
}
