package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lingua-tutor-api/internal/dto"
	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
	appErrors "github.com/noah-isme/lingua-tutor-api/pkg/errors"
	"github.com/noah-isme/lingua-tutor-api/pkg/lock"
)

type availabilityRepository interface {
	ListByTutorDay(ctx context.Context, tutorID string, day int) ([]models.AvailabilityWindow, error)
	ListByTutor(ctx context.Context, tutorID string) ([]models.AvailabilityWindow, error)
	FindByID(ctx context.Context, id string) (*models.AvailabilityWindow, error)
	Create(ctx context.Context, window *models.AvailabilityWindow) error
	Delete(ctx context.Context, id string) error
}

// slotInvalidator drops cached slot results for a tutor.
type slotInvalidator interface {
	Invalidate(ctx context.Context, tutorID string)
}

// AvailabilityService is the availability index: it keeps each tutor's
// weekly windows free of overlaps.
type AvailabilityService struct {
	repo      availabilityRepository
	tutors    tutorProfileFinder
	locker    lock.Locker
	slots     slotInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(repo availabilityRepository, tutors tutorProfileFinder, locker lock.Locker, slots slotInvalidator, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if slots == nil {
		slots = noopInvalidator{}
	}
	if locker == nil {
		locker = lock.NewLocalLocker(2 * time.Second)
	}
	return &AvailabilityService{repo: repo, tutors: tutors, locker: locker, slots: slots, validator: validate, logger: logger}
}

// AddWindow declares a new weekly window for the calling tutor. Windows may
// touch but not overlap another active window on the same weekday.
func (s *AvailabilityService) AddWindow(ctx context.Context, actor *models.JWTClaims, req models.CreateAvailabilityRequest) (*models.AvailabilityWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	interval, err := parseInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	profile, err := actorTutorProfile(ctx, s.tutors, actor)
	if err != nil {
		return nil, err
	}
	day := *req.DayOfWeek

	var window *models.AvailabilityWindow
	err = s.locker.WithLock(ctx, "availability:"+profile.ID, func(ctx context.Context) error {
		existing, err := s.repo.ListByTutorDay(ctx, profile.ID, day)
		if err != nil {
			return storageError(err, "failed to load availability")
		}
		intervals := make([]scheduling.Interval, 0, len(existing))
		for _, w := range existing {
			intervals = append(intervals, w.Interval())
		}
		if err := scheduling.CheckWindow(intervals, interval); err != nil {
			return mapSchedulingError(err)
		}

		window = &models.AvailabilityWindow{
			TutorID:   profile.ID,
			DayOfWeek: day,
			StartTime: interval.Start,
			EndTime:   interval.End,
		}
		if err := s.repo.Create(ctx, window); err != nil {
			return storageError(err, "failed to create availability window")
		}
		return nil
	})
	if err != nil {
		return nil, lockError(err)
	}

	s.slots.Invalidate(ctx, profile.ID)
	s.logger.Info("availability window added",
		zap.String("tutor_id", profile.ID),
		zap.String("day", scheduling.DayName(day)),
		zap.String("interval", interval.String()))
	return window, nil
}

// RemoveWindow hard-deletes one of the caller's windows. Bookings already made
// against it are kept.
func (s *AvailabilityService) RemoveWindow(ctx context.Context, actor *models.JWTClaims, windowID string) error {
	profile, err := actorTutorProfile(ctx, s.tutors, actor)
	if err != nil {
		return err
	}
	window, err := s.repo.FindByID(ctx, windowID)
	if err != nil {
		return notFoundOr(err, "availability window not found", "failed to load availability window")
	}
	if window.TutorID != profile.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "availability window belongs to another tutor")
	}
	if err := s.repo.Delete(ctx, windowID); err != nil {
		return notFoundOr(err, "availability window not found", "failed to delete availability window")
	}

	s.slots.Invalidate(ctx, profile.ID)
	s.logger.Info("availability window removed", zap.String("tutor_id", profile.ID), zap.String("window_id", windowID))
	return nil
}

// WindowsFor returns the active intervals of a tutor on a weekday, ordered by
// start.
func (s *AvailabilityService) WindowsFor(ctx context.Context, tutorID string, day int) ([]scheduling.Interval, error) {
	if !scheduling.ValidDayOfWeek(day) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day_of_week must be between 0 and 6")
	}
	windows, err := s.repo.ListByTutorDay(ctx, tutorID, day)
	if err != nil {
		return nil, storageError(err, "failed to load availability")
	}
	out := make([]scheduling.Interval, 0, len(windows))
	for _, w := range windows {
		out = append(out, w.Interval())
	}
	return out, nil
}

// WeeklySchedule returns all seven weekdays with their windows.
func (s *AvailabilityService) WeeklySchedule(ctx context.Context, tutorID string) ([]dto.DaySchedule, error) {
	windows, err := s.repo.ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, storageError(err, "failed to load availability")
	}

	schedule := make([]dto.DaySchedule, scheduling.DaysPerWeek)
	for day := range schedule {
		schedule[day] = dto.DaySchedule{DayOfWeek: day, DayName: scheduling.DayName(day), Windows: []dto.WindowView{}}
	}
	for _, w := range windows {
		if !scheduling.ValidDayOfWeek(w.DayOfWeek) {
			continue
		}
		slot := dto.NewSlot(w.Interval())
		schedule[w.DayOfWeek].Windows = append(schedule[w.DayOfWeek].Windows, dto.WindowView{
			ID: w.ID, Start: slot.Start, End: slot.End, Display: slot.Display,
		})
	}
	return schedule, nil
}

// MySchedule returns the caller's weekly schedule.
func (s *AvailabilityService) MySchedule(ctx context.Context, actor *models.JWTClaims) ([]dto.DaySchedule, error) {
	profile, err := actorTutorProfile(ctx, s.tutors, actor)
	if err != nil {
		return nil, err
	}
	return s.WeeklySchedule(ctx, profile.ID)
}

func parseInterval(start, end string) (scheduling.Interval, error) {
	interval, err := scheduling.ParseInterval(start, end)
	if err != nil {
		return scheduling.Interval{}, mapSchedulingError(err)
	}
	return interval, nil
}

// mapSchedulingError turns scheduling sentinels into API errors.
func mapSchedulingError(err error) error {
	switch {
	case errors.Is(err, scheduling.ErrMalformedTime), errors.Is(err, scheduling.ErrMalformedDate):
		return appErrors.WrapAs(err, appErrors.ErrMalformedInput, err.Error())
	case errors.Is(err, scheduling.ErrInvalidInterval):
		return appErrors.WrapAs(err, appErrors.ErrInvalidInterval, "")
	case errors.Is(err, scheduling.ErrWindowOverlap):
		return appErrors.WrapAs(err, appErrors.ErrAvailabilityOverlap, "")
	case errors.Is(err, scheduling.ErrOutsideAvailability):
		return appErrors.WrapAs(err, appErrors.ErrOutsideAvailability, "")
	case errors.Is(err, scheduling.ErrSlotConflict):
		return appErrors.WrapAs(err, appErrors.ErrSlotConflict, "")
	default:
		return err
	}
}

func lockError(err error) error {
	if errors.Is(err, lock.ErrLockNotAcquired) {
		return appErrors.WrapAs(err, appErrors.ErrSlotBeingBooked, "")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return storageError(err, "failed to acquire booking lock")
}
