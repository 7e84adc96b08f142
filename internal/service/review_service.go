package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/internal/repository"
	appErrors "github.com/noah-isme/lingua-tutor-api/pkg/errors"
)

type reviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	Exists(ctx context.Context, studentID, bookingID string) (bool, error)
	ListByTutor(ctx context.Context, tutorID string) ([]models.ReviewView, error)
}

type reviewBookingFinder interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
}

// ReviewService records ratings for completed sessions.
type ReviewService struct {
	repo      reviewRepository
	bookings  reviewBookingFinder
	tutors    tutorExistence
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReviewService constructs a ReviewService.
func NewReviewService(repo reviewRepository, bookings reviewBookingFinder, tutors tutorExistence, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReviewService{repo: repo, bookings: bookings, tutors: tutors, validator: validate, logger: logger}
}

// Create stores the student's review of a COMPLETED booking. One review per
// student and booking.
func (s *ReviewService) Create(ctx context.Context, actor *models.JWTClaims, bookingID string, req models.CreateReviewRequest) (*models.Review, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, notFoundOr(err, "booking not found", "failed to load booking")
	}
	if booking.StudentID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the booking's student can review it")
	}
	if booking.Status != models.BookingCompleted {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only completed sessions can be reviewed")
	}

	exists, err := s.repo.Exists(ctx, actor.UserID, bookingID)
	if err != nil {
		return nil, storageError(err, "failed to check existing review")
	}
	if exists {
		return nil, appErrors.ErrReviewExists
	}

	review := &models.Review{
		StudentID: actor.UserID,
		TutorID:   booking.TutorID,
		BookingID: booking.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.ErrReviewExists
		}
		return nil, storageError(err, "failed to create review")
	}

	s.logger.Info("review created", zap.String("booking_id", bookingID), zap.Int("rating", review.Rating))
	return review, nil
}

// ListForTutor returns a tutor's reviews, newest first.
func (s *ReviewService) ListForTutor(ctx context.Context, tutorID string) ([]models.ReviewView, error) {
	if _, err := s.tutors.FindByID(ctx, tutorID); err != nil {
		return nil, notFoundOr(err, "tutor not found", "failed to load tutor")
	}
	reviews, err := s.repo.ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, storageError(err, "failed to list reviews")
	}
	if reviews == nil {
		reviews = []models.ReviewView{}
	}
	return reviews, nil
}
