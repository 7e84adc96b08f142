package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	appErrors "github.com/noah-isme/lingua-tutor-api/pkg/errors"
)

type tutorRepository interface {
	tutorProfileFinder
	FindByID(ctx context.Context, id string) (*models.TutorSummary, error)
	List(ctx context.Context, filter models.TutorFilter) ([]models.TutorSummary, int, error)
	Specializations(ctx context.Context) ([]string, error)
	Update(ctx context.Context, profile *models.TutorProfile) error
}

// TutorService serves tutor browsing and profile edits.
type TutorService struct {
	repo      tutorRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTutorService constructs a TutorService.
func NewTutorService(repo tutorRepository, validate *validator.Validate, logger *zap.Logger) *TutorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TutorService{repo: repo, validator: validate, logger: logger}
}

// List returns one page of tutors matching filter.
func (s *TutorService) List(ctx context.Context, filter models.TutorFilter) ([]models.TutorSummary, *models.Pagination, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "min_price must not exceed max_price")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}

	tutors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, storageError(err, "failed to list tutors")
	}
	if tutors == nil {
		tutors = []models.TutorSummary{}
	}
	return tutors, &models.Pagination{Page: filter.Page, Limit: filter.Limit, TotalCount: total}, nil
}

// Get returns one tutor with derived rating.
func (s *TutorService) Get(ctx context.Context, id string) (*models.TutorSummary, error) {
	tutor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "tutor not found", "failed to load tutor")
	}
	return tutor, nil
}

// Specializations lists distinct tutor specializations.
func (s *TutorService) Specializations(ctx context.Context) ([]string, error) {
	out, err := s.repo.Specializations(ctx)
	if err != nil {
		return nil, storageError(err, "failed to list specializations")
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// UpdateProfile replaces the caller's editable profile fields.
func (s *TutorService) UpdateProfile(ctx context.Context, actor *models.JWTClaims, req models.UpdateTutorProfileRequest) (*models.TutorProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	profile, err := actorTutorProfile(ctx, s.repo, actor)
	if err != nil {
		return nil, err
	}

	profile.Bio = req.Bio
	profile.HourlyRate = req.HourlyRate
	profile.YearsExperience = req.YearsExperience
	profile.ProfileImage = req.ProfileImage
	profile.ProficiencyLevel = req.ProficiencyLevel
	profile.Specialization = req.Specialization

	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, notFoundOr(err, "tutor profile not found", "failed to update tutor profile")
	}
	s.logger.Info("tutor profile updated", zap.String("tutor_id", profile.ID))
	return profile, nil
}
