package models

import "time"

// EarningsEntry is one completed payment credited to a tutor.
type EarningsEntry struct {
	BookingID       string    `db:"booking_id" json:"booking_id"`
	BookingDate     time.Time `db:"booking_date" json:"booking_date"`
	StudentUsername string    `db:"student_username" json:"student_username"`
	Amount          float64   `db:"amount" json:"amount"`
	PlatformFee     float64   `db:"platform_fee" json:"platform_fee"`
	TutorPayout     float64   `db:"tutor_payout" json:"tutor_payout"`
	Currency        string    `db:"currency" json:"currency"`
	PaymentDate     time.Time `db:"payment_date" json:"payment_date"`
}

// MonthlyEarnings aggregates payouts for one calendar month.
type MonthlyEarnings struct {
	Month    string  `json:"month"`
	Payout   float64 `json:"payout"`
	Sessions int     `json:"sessions"`
}

// EarningsSummary is a tutor's payout history.
type EarningsSummary struct {
	TutorID  string            `json:"tutor_id"`
	Currency string            `json:"currency"`
	Total    float64           `json:"total"`
	Monthly  []MonthlyEarnings `json:"monthly"`
	Entries  []EarningsEntry   `json:"entries"`
}
