package scheduling

import "math"

// DefaultPlatformFeeRate is the share of each payment retained by the platform.
const DefaultPlatformFeeRate = 0.20

// FeeSplit is the division of a payment between platform and tutor.
type FeeSplit struct {
	PlatformFee float64 `json:"platform_fee"`
	TutorPayout float64 `json:"tutor_payout"`
}

// RoundCents rounds a monetary amount to two decimals, half away from zero.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// SessionPrice prices a session at hourlyRate for the length of the interval.
func SessionPrice(hourlyRate float64, session Interval) float64 {
	return RoundCents(hourlyRate * session.Hours())
}

// SplitFee divides amount into platform fee and tutor payout. Each side is
// rounded independently to cents.
func SplitFee(amount, rate float64) FeeSplit {
	if rate < 0 || rate > 1 {
		rate = DefaultPlatformFeeRate
	}
	return FeeSplit{
		PlatformFee: RoundCents(amount * rate),
		TutorPayout: RoundCents(amount * (1 - rate)),
	}
}
