package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/lingua-tutor-api/internal/dto"
	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
)

type windowSource interface {
	ListByTutorDay(ctx context.Context, tutorID string, day int) ([]models.AvailabilityWindow, error)
	ListByTutor(ctx context.Context, tutorID string) ([]models.AvailabilityWindow, error)
}

type occupancySource interface {
	ListOccupied(ctx context.Context, tutorID string, date time.Time, statuses []models.BookingStatus) ([]scheduling.Interval, error)
}

type tutorExistence interface {
	FindByID(ctx context.Context, id string) (*models.TutorSummary, error)
}

// SlotConfig tunes resolution.
type SlotConfig struct {
	Policy      scheduling.SlotPolicy
	CacheTTL    time.Duration
	BrowseDays  int
	HorizonDays int
}

// SlotService is the slot resolver: weekly availability minus confirmed
// occupancy for a concrete date. Reads take no lock.
type SlotService struct {
	windows  windowSource
	calendar occupancySource
	tutors   tutorExistence
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	config   SlotConfig
	group    singleflight.Group
	now      func() time.Time

	genMu       sync.Mutex
	generations map[string]uint64
}

// NewSlotService constructs a SlotService.
func NewSlotService(windows windowSource, calendar occupancySource, tutors tutorExistence, cache *CacheService, metrics *MetricsService, logger *zap.Logger, config SlotConfig) *SlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Policy == "" {
		config.Policy = scheduling.SlotPolicyWholeWindow
	}
	if config.BrowseDays <= 0 {
		config.BrowseDays = 7
	}
	if config.HorizonDays <= 0 {
		config.HorizonDays = 14
	}
	return &SlotService{
		windows:  windows,
		calendar: calendar,
		tutors:   tutors,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		config:   config,
		now:      time.Now,

		generations: map[string]uint64{},
	}
}

// Today returns the current calendar day in UTC.
func (s *SlotService) Today() time.Time {
	return scheduling.Truncate(s.now().UTC())
}

// Resolve returns the free slots of tutorID on date, ordered by start. Dates
// before today have no slots.
func (s *SlotService) Resolve(ctx context.Context, tutorID string, date time.Time) ([]scheduling.Interval, error) {
	if err := s.ensureTutor(ctx, tutorID); err != nil {
		return nil, err
	}
	return s.resolve(ctx, tutorID, scheduling.Truncate(date))
}

// Calendar resolves days consecutive dates from from and keeps only dates
// with at least one free slot.
func (s *SlotService) Calendar(ctx context.Context, tutorID string, from time.Time, days int) ([]dto.DaySlots, error) {
	if err := s.ensureTutor(ctx, tutorID); err != nil {
		return nil, err
	}
	if days <= 0 || days > s.config.HorizonDays {
		days = s.config.BrowseDays
	}
	dates := scheduling.DateRange(s.clampFrom(from), days)

	results := make([][]scheduling.Interval, len(dates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, date := range dates {
		i, date := i, date
		g.Go(func() error {
			slots, err := s.resolve(gctx, tutorID, date)
			if err != nil {
				return err
			}
			results[i] = slots
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]dto.DaySlots, 0, len(dates))
	for i, date := range dates {
		if len(results[i]) == 0 {
			continue
		}
		out = append(out, dto.DaySlots{
			Date:    scheduling.FormatDate(date),
			DayName: scheduling.DayName(scheduling.DayOfWeek(date)),
			Slots:   dto.NewSlots(results[i]),
		})
	}
	return out, nil
}

// BookableDates lists dates in the horizon whose weekday has any active
// window, regardless of occupancy.
func (s *SlotService) BookableDates(ctx context.Context, tutorID string, from time.Time, days int) ([]dto.BookableDate, error) {
	if err := s.ensureTutor(ctx, tutorID); err != nil {
		return nil, err
	}
	if days <= 0 || days > 4*s.config.HorizonDays {
		days = s.config.HorizonDays
	}
	windows, err := s.windows.ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, storageError(err, "failed to load availability")
	}
	var activeDays [scheduling.DaysPerWeek]bool
	for _, w := range windows {
		if scheduling.ValidDayOfWeek(w.DayOfWeek) {
			activeDays[w.DayOfWeek] = true
		}
	}

	out := []dto.BookableDate{}
	for _, date := range scheduling.DateRange(s.clampFrom(from), days) {
		day := scheduling.DayOfWeek(date)
		if activeDays[day] {
			out = append(out, dto.BookableDate{Date: scheduling.FormatDate(date), DayName: scheduling.DayName(day)})
		}
	}
	return out, nil
}

// Invalidate drops cached slots for a tutor after any availability or booking
// status change. Resolutions already in flight for the tutor keep their result
// out of the cache.
func (s *SlotService) Invalidate(ctx context.Context, tutorID string) {
	s.genMu.Lock()
	s.generations[tutorID]++
	s.genMu.Unlock()

	if err := s.cache.Invalidate(ctx, slotCachePattern(tutorID)); err != nil {
		s.logger.Warn("slot cache invalidation failed", zap.String("tutor_id", tutorID), zap.Error(err))
	}
}

func (s *SlotService) resolve(ctx context.Context, tutorID string, date time.Time) ([]scheduling.Interval, error) {
	if date.Before(s.Today()) {
		return []scheduling.Interval{}, nil
	}

	gen := s.generation(tutorID)
	key := slotCacheKey(tutorID, gen, scheduling.FormatDate(date), string(s.config.Policy))
	var cached []scheduling.Interval
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		start := time.Now()
		defer func() { s.metrics.ObserveSlotResolution(time.Since(start)) }()

		windows, err := s.windows.ListByTutorDay(ctx, tutorID, scheduling.DayOfWeek(date))
		if err != nil {
			return nil, storageError(err, "failed to load availability")
		}
		occupied, err := s.calendar.ListOccupied(ctx, tutorID, date, models.BlockingStatuses)
		if err != nil {
			return nil, storageError(err, "failed to load bookings")
		}

		intervals := make([]scheduling.Interval, 0, len(windows))
		for _, w := range windows {
			intervals = append(intervals, w.Interval())
		}
		slots := scheduling.ResolveSlots(intervals, occupied, s.config.Policy)
		// an Invalidate during the reads makes this result stale
		if s.generation(tutorID) == gen {
			s.cache.Set(ctx, key, slots, s.config.CacheTTL)
		}
		return slots, nil
	})
	if err != nil {
		return nil, err
	}

	// singleflight shares the slice between callers
	shared := v.([]scheduling.Interval)
	out := make([]scheduling.Interval, len(shared))
	copy(out, shared)
	return out, nil
}

func (s *SlotService) generation(tutorID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[tutorID]
}

func (s *SlotService) ensureTutor(ctx context.Context, tutorID string) error {
	if s.tutors == nil {
		return nil
	}
	if _, err := s.tutors.FindByID(ctx, tutorID); err != nil {
		return notFoundOr(err, "tutor not found", "failed to load tutor")
	}
	return nil
}

func (s *SlotService) clampFrom(from time.Time) time.Time {
	today := s.Today()
	if from.IsZero() || from.Before(today) {
		return today
	}
	return scheduling.Truncate(from)
}
