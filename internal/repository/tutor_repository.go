package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
)

const insertTutorProfile = `INSERT INTO tutor_profiles (id, user_id, bio, hourly_rate, years_experience, profile_image, proficiency_level, specialization, created_at, updated_at) VALUES (:id, :user_id, :bio, :hourly_rate, :years_experience, :profile_image, :proficiency_level, :specialization, :created_at, :updated_at)`

const tutorSummarySelect = `SELECT tp.id, tp.user_id, tp.bio, tp.hourly_rate, tp.years_experience, tp.profile_image, tp.proficiency_level, tp.specialization, tp.created_at, tp.updated_at, u.username, COALESCE(AVG(r.rating), 0) AS avg_rating, COUNT(r.id) AS review_count FROM tutor_profiles tp JOIN users u ON u.id = tp.user_id LEFT JOIN reviews r ON r.tutor_id = tp.id`

const tutorSummaryGroup = ` GROUP BY tp.id, u.username`

// TutorRepository reads and updates tutor profiles. Rating figures are
// aggregated from reviews at query time.
type TutorRepository struct {
	db *sqlx.DB
}

// NewTutorRepository constructs a TutorRepository.
func NewTutorRepository(db *sqlx.DB) *TutorRepository {
	return &TutorRepository{db: db}
}

// FindByID returns a tutor summary by profile id.
func (r *TutorRepository) FindByID(ctx context.Context, id string) (*models.TutorSummary, error) {
	query := tutorSummarySelect + ` WHERE tp.id = $1` + tutorSummaryGroup
	var tutor models.TutorSummary
	if err := r.db.GetContext(ctx, &tutor, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find tutor: %w", err)
	}
	return &tutor, nil
}

// FindByUserID returns the profile owned by a TUTOR user.
func (r *TutorRepository) FindByUserID(ctx context.Context, userID string) (*models.TutorProfile, error) {
	const query = `SELECT id, user_id, bio, hourly_rate, years_experience, profile_image, proficiency_level, specialization, created_at, updated_at FROM tutor_profiles WHERE user_id = $1 LIMIT 1`
	var profile models.TutorProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find tutor by user: %w", err)
	}
	return &profile, nil
}

// List returns tutors matching the filter, highest rated first.
func (r *TutorRepository) List(ctx context.Context, filter models.TutorFilter) ([]models.TutorSummary, int, error) {
	var where []string
	var having []string
	var args []interface{}

	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		where = append(where, fmt.Sprintf("tp.hourly_rate >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		where = append(where, fmt.Sprintf("tp.hourly_rate <= $%d", len(args)))
	}
	if filter.Specialization != "" {
		args = append(args, "%"+strings.ToLower(filter.Specialization)+"%")
		where = append(where, fmt.Sprintf("LOWER(tp.specialization) LIKE $%d", len(args)))
	}
	if filter.MinRating != nil {
		args = append(args, *filter.MinRating)
		having = append(having, fmt.Sprintf("COALESCE(AVG(r.rating), 0) >= $%d", len(args)))
	}

	filtered := tutorSummarySelect
	if len(where) > 0 {
		filtered += " WHERE " + strings.Join(where, " AND ")
	}
	filtered += tutorSummaryGroup
	if len(having) > 0 {
		filtered += " HAVING " + strings.Join(having, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	listQuery := fmt.Sprintf("%s ORDER BY avg_rating DESC, u.username ASC LIMIT %d OFFSET %d", filtered, limit, offset)
	var tutors []models.TutorSummary
	if err := r.db.SelectContext(ctx, &tutors, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list tutors: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS t", filtered)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tutors: %w", err)
	}

	return tutors, total, nil
}

// Specializations lists the distinct non-empty specializations.
func (r *TutorRepository) Specializations(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT specialization FROM tutor_profiles WHERE specialization <> '' ORDER BY specialization`
	var out []string
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list specializations: %w", err)
	}
	return out, nil
}

// Update stores the editable profile fields.
func (r *TutorRepository) Update(ctx context.Context, profile *models.TutorProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tutor_profiles SET bio = :bio, hourly_rate = :hourly_rate, years_experience = :years_experience, profile_image = :profile_image, proficiency_level = :proficiency_level, specialization = :specialization, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		return fmt.Errorf("update tutor profile: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
