package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	appErrors "github.com/noah-isme/lingua-tutor-api/pkg/errors"
)

// tutorProfileFinder resolves the tutor profile owned by a user.
type tutorProfileFinder interface {
	FindByUserID(ctx context.Context, userID string) (*models.TutorProfile, error)
}

func requireActor(actor *models.JWTClaims) error {
	if actor == nil || actor.UserID == "" {
		return appErrors.ErrUnauthorized
	}
	return nil
}

func requireRole(actor *models.JWTClaims, roles ...models.UserRole) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "role not allowed for this action")
}

// actorTutorProfile loads the caller's own tutor profile.
func actorTutorProfile(ctx context.Context, finder tutorProfileFinder, actor *models.JWTClaims) (*models.TutorProfile, error) {
	if err := requireRole(actor, models.RoleTutor); err != nil {
		return nil, err
	}
	profile, err := finder.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "tutor profile not found for user")
		}
		return nil, storageError(err, "failed to load tutor profile")
	}
	return profile, nil
}

func storageError(err error, message string) *appErrors.Error {
	return appErrors.WrapAs(err, appErrors.ErrStorage, message)
}

func notFoundOr(err error, notFound, storage string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return storageError(err, storage)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, string) {}
