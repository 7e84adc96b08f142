package models

import "time"

// Profile bounds enforced on update.
const (
	MinHourlyRate      = 5.0
	MaxHourlyRate      = 200.0
	MaxYearsExperience = 50
	MaxBioLength       = 1000
)

// TutorProfile is the public teaching profile attached to a TUTOR user.
type TutorProfile struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	Bio              string    `db:"bio" json:"bio"`
	HourlyRate       float64   `db:"hourly_rate" json:"hourly_rate"`
	YearsExperience  int       `db:"years_experience" json:"years_experience"`
	ProfileImage     string    `db:"profile_image" json:"profile_image"`
	ProficiencyLevel string    `db:"proficiency_level" json:"proficiency_level"`
	Specialization   string    `db:"specialization" json:"specialization"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// TutorSummary is a profile joined with its user and derived review stats.
type TutorSummary struct {
	TutorProfile
	Username    string  `db:"username" json:"username"`
	AvgRating   float64 `db:"avg_rating" json:"avg_rating"`
	ReviewCount int     `db:"review_count" json:"review_count"`
}

// TutorFilter captures the tutor listing query.
type TutorFilter struct {
	MinPrice       *float64
	MaxPrice       *float64
	MinRating      *float64
	Specialization string
	Page           int
	Limit          int
}

// UpdateTutorProfileRequest replaces the editable profile fields.
type UpdateTutorProfileRequest struct {
	Bio              string  `json:"bio" validate:"max=1000"`
	HourlyRate       float64 `json:"hourly_rate" validate:"gte=5,lte=200"`
	YearsExperience  int     `json:"years_experience" validate:"gte=0,lte=50"`
	ProfileImage     string  `json:"profile_image" validate:"omitempty,url"`
	ProficiencyLevel string  `json:"proficiency_level" validate:"max=50"`
	Specialization   string  `json:"specialization" validate:"max=100"`
}
