package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
)

const windowColumns = `id, tutor_id, day_of_week, start_time, end_time, active, created_at`

// AvailabilityRepository stores weekly availability windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByTutorDay returns active windows for one weekday ordered by start.
func (r *AvailabilityRepository) ListByTutorDay(ctx context.Context, tutorID string, day int) ([]models.AvailabilityWindow, error) {
	query := `SELECT ` + windowColumns + ` FROM availability_windows WHERE tutor_id = $1 AND day_of_week = $2 AND active = TRUE ORDER BY start_time`
	var windows []models.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, tutorID, day); err != nil {
		return nil, fmt.Errorf("list windows by day: %w", err)
	}
	return windows, nil
}

// ListByTutor returns every active window ordered by weekday then start.
func (r *AvailabilityRepository) ListByTutor(ctx context.Context, tutorID string) ([]models.AvailabilityWindow, error) {
	query := `SELECT ` + windowColumns + ` FROM availability_windows WHERE tutor_id = $1 AND active = TRUE ORDER BY day_of_week, start_time`
	var windows []models.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, tutorID); err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	return windows, nil
}

// FindByID returns a window by identifier.
func (r *AvailabilityRepository) FindByID(ctx context.Context, id string) (*models.AvailabilityWindow, error) {
	query := `SELECT ` + windowColumns + ` FROM availability_windows WHERE id = $1`
	var window models.AvailabilityWindow
	if err := r.db.GetContext(ctx, &window, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find window: %w", err)
	}
	return &window, nil
}

// Create inserts an active window.
func (r *AvailabilityRepository) Create(ctx context.Context, window *models.AvailabilityWindow) error {
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	if window.CreatedAt.IsZero() {
		window.CreatedAt = time.Now().UTC()
	}
	window.Active = true

	const query = `INSERT INTO availability_windows (id, tutor_id, day_of_week, start_time, end_time, active, created_at) VALUES (:id, :tutor_id, :day_of_week, :start_time, :end_time, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	return nil
}

// Delete hard-deletes a window. Bookings made against it are untouched.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM availability_windows WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete window: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
