package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/internal/repository"
	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
	appErrors "github.com/noah-isme/lingua-tutor-api/pkg/errors"
	"github.com/noah-isme/lingua-tutor-api/pkg/lock"
)

type bookingRepository interface {
	occupancySource
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	FindView(ctx context.Context, id string) (*models.BookingView, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.BookingView, error)
	UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) error
	Cancel(ctx context.Context, id string, from models.BookingStatus) (bool, error)
}

type paymentRepository interface {
	FindByBookingID(ctx context.Context, bookingID string) (*models.Payment, error)
	Capture(ctx context.Context, payment *models.Payment) error
}

type bookingTutorRepository interface {
	tutorProfileFinder
	tutorExistence
}

type bookingWindowSource interface {
	ListByTutorDay(ctx context.Context, tutorID string, day int) ([]models.AvailabilityWindow, error)
}

// BookingConfig holds payment settings for admission.
type BookingConfig struct {
	PlatformFeeRate float64
	Currency        string
}

var expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)

// BookingService is the admission controller. Proposals and payment captures
// for one tutor and date are serialized through the locker.
type BookingService struct {
	bookings  bookingRepository
	payments  paymentRepository
	windows   bookingWindowSource
	tutors    bookingTutorRepository
	locker    lock.Locker
	slots     slotInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    BookingConfig
	now       func() time.Time
}

// NewBookingService constructs a BookingService.
func NewBookingService(
	bookings bookingRepository,
	payments paymentRepository,
	windows bookingWindowSource,
	tutors bookingTutorRepository,
	locker lock.Locker,
	slots slotInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	config BookingConfig,
) *BookingService {
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
	if config.PlatformFeeRate <= 0 || config.PlatformFeeRate >= 1 {
		config.PlatformFeeRate = scheduling.DefaultPlatformFeeRate
	}
	if config.Currency == "" {
		config.Currency = "EUR"
	}
	return &BookingService{
		bookings:  bookings,
		payments:  payments,
		windows:   windows,
		tutors:    tutors,
		locker:    locker,
		slots:     slots,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Propose admits a PENDING booking when the interval fits inside one active
// window of the date's weekday and overlaps no confirmed booking.
func (s *BookingService) Propose(ctx context.Context, actor *models.JWTClaims, req models.CreateBookingRequest) (*models.Booking, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	date, err := scheduling.ParseDate(req.Date)
	if err != nil {
		return nil, mapSchedulingError(err)
	}
	interval, err := parseInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if date.Before(s.today()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot book a date in the past")
	}

	tutor, err := s.tutors.FindByID(ctx, req.TutorID)
	if err != nil {
		return nil, notFoundOr(err, "tutor not found", "failed to load tutor")
	}

	var booking *models.Booking
	err = s.withBookingLock(ctx, tutor.ID, date, func(ctx context.Context) error {
		if err := s.admit(ctx, tutor.ID, date, interval); err != nil {
			return err
		}
		booking = &models.Booking{
			StudentID: actor.UserID,
			TutorID:   tutor.ID,
			Date:      date,
			StartTime: interval.Start,
			EndTime:   interval.End,
			Status:    models.BookingPending,
			Price:     scheduling.SessionPrice(tutor.HourlyRate, interval),
		}
		if err := s.bookings.Create(ctx, booking); err != nil {
			return storageError(err, "failed to create booking")
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveAdmission(admissionOutcome(err))
		return nil, err
	}

	s.metrics.ObserveAdmission(OutcomeAdmitted)
	s.logger.Info("booking admitted",
		zap.String("booking_id", booking.ID),
		zap.String("tutor_id", tutor.ID),
		zap.String("date", scheduling.FormatDate(date)),
		zap.String("interval", interval.String()),
		zap.Float64("price", booking.Price))
	return booking, nil
}

// Get returns a booking and its payment, if any, to a participant or admin.
func (s *BookingService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.BookingView, *models.Payment, error) {
	view, err := s.loadForParticipant(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	payment, err := s.payments.FindByBookingID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return view, nil, nil
		}
		return nil, nil, storageError(err, "failed to load payment")
	}
	return view, payment, nil
}

// List returns the caller's bookings: students see their own, tutors see
// bookings with them, admins see all.
func (s *BookingService) List(ctx context.Context, actor *models.JWTClaims, scope models.BookingScope) ([]models.BookingView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	switch scope {
	case "", models.ScopeUpcoming, models.ScopePast:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "scope must be upcoming or past")
	}

	filter := models.BookingFilter{Scope: scope, Today: s.today()}
	switch actor.Role {
	case models.RoleStudent:
		filter.StudentID = actor.UserID
	case models.RoleTutor:
		profile, err := actorTutorProfile(ctx, s.tutors, actor)
		if err != nil {
			return nil, err
		}
		filter.TutorID = profile.ID
	}

	views, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, storageError(err, "failed to list bookings")
	}
	if views == nil {
		views = []models.BookingView{}
	}
	return views, nil
}

// CapturePayment charges a PENDING booking with the mock gateway, splits the
// fee and confirms the booking. Confirmed occupancy is re-checked under the
// tutor/date lock, so of two pending bookings for the same time only the
// first capture succeeds.
func (s *BookingService) CapturePayment(ctx context.Context, actor *models.JWTClaims, bookingID string, req models.CapturePaymentRequest) (*models.Payment, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment details")
	}
	if err := s.checkExpiry(req.Expiry); err != nil {
		return nil, err
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, notFoundOr(err, "booking not found", "failed to load booking")
	}
	if booking.StudentID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the booking's student can pay for it")
	}
	if _, err := s.payments.FindByBookingID(ctx, bookingID); err == nil {
		return nil, appErrors.ErrPaymentExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, storageError(err, "failed to load payment")
	}
	if !booking.Status.CanTransitionTo(models.BookingConfirmed) {
		return nil, invalidTransition(booking.Status, models.BookingConfirmed)
	}

	var payment *models.Payment
	err = s.withBookingLock(ctx, booking.TutorID, booking.Date, func(ctx context.Context) error {
		occupied, err := s.bookings.ListOccupied(ctx, booking.TutorID, booking.Date, models.BlockingStatuses)
		if err != nil {
			return storageError(err, "failed to load bookings")
		}
		if scheduling.OverlapsAny(booking.Interval(), occupied) {
			return appErrors.WrapAs(scheduling.ErrSlotConflict, appErrors.ErrSlotConflict, "")
		}

		split := scheduling.SplitFee(booking.Price, s.config.PlatformFeeRate)
		payment = &models.Payment{
			BookingID:     booking.ID,
			Amount:        booking.Price,
			Currency:      s.config.Currency,
			PlatformFee:   split.PlatformFee,
			TutorPayout:   split.TutorPayout,
			Status:        models.PaymentCompleted,
			TransactionID: newTransactionID(),
			PaymentDate:   s.now().UTC(),
		}
		if err := s.payments.Capture(ctx, payment); err != nil {
			switch {
			case errors.Is(err, repository.ErrDuplicate):
				return appErrors.ErrPaymentExists
			case errors.Is(err, repository.ErrStatusChanged):
				return appErrors.Clone(appErrors.ErrInvalidTransition, "booking is no longer pending")
			case errors.Is(err, repository.ErrSlotTaken):
				return appErrors.WrapAs(err, appErrors.ErrSlotConflict, "")
			}
			return storageError(err, "failed to capture payment")
		}
		return nil
	})
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrSlotConflict) {
			s.metrics.ObserveAdmission(OutcomeSlotConflict)
		}
		s.metrics.ObservePayment(string(models.PaymentFailed), 0)
		return nil, err
	}

	s.slots.Invalidate(ctx, booking.TutorID)
	s.metrics.ObservePayment(string(models.PaymentCompleted), payment.Amount)
	s.logger.Info("payment captured",
		zap.String("booking_id", booking.ID),
		zap.String("transaction_id", payment.TransactionID),
		zap.Float64("amount", payment.Amount),
		zap.Float64("platform_fee", payment.PlatformFee),
		zap.Float64("tutor_payout", payment.TutorPayout))
	return payment, nil
}

// Complete marks a CONFIRMED booking as COMPLETED.
func (s *BookingService) Complete(ctx context.Context, actor *models.JWTClaims, id string) (*models.BookingView, error) {
	view, err := s.loadForParticipant(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !view.Status.CanTransitionTo(models.BookingCompleted) {
		return nil, invalidTransition(view.Status, models.BookingCompleted)
	}
	if err := s.bookings.UpdateStatus(ctx, id, view.Status, models.BookingCompleted); err != nil {
		return nil, statusUpdateError(err, "failed to complete booking")
	}

	s.slots.Invalidate(ctx, view.TutorID)
	s.logger.Info("booking completed", zap.String("booking_id", id))
	view.Status = models.BookingCompleted
	return view, nil
}

// Cancel moves a PENDING or CONFIRMED booking to CANCELLED and refunds its
// payment. The freed interval is offered again on the next resolution.
func (s *BookingService) Cancel(ctx context.Context, actor *models.JWTClaims, id string) (*models.BookingView, bool, error) {
	view, err := s.loadForParticipant(ctx, actor, id)
	if err != nil {
		return nil, false, err
	}
	if !view.Status.CanTransitionTo(models.BookingCancelled) {
		return nil, false, invalidTransition(view.Status, models.BookingCancelled)
	}
	refunded, err := s.bookings.Cancel(ctx, id, view.Status)
	if err != nil {
		return nil, false, statusUpdateError(err, "failed to cancel booking")
	}

	s.slots.Invalidate(ctx, view.TutorID)
	if refunded {
		s.metrics.ObservePayment(string(models.PaymentRefunded), 0)
	}
	s.logger.Info("booking cancelled", zap.String("booking_id", id), zap.Bool("refunded", refunded))
	view.Status = models.BookingCancelled
	return view, refunded, nil
}

func (s *BookingService) admit(ctx context.Context, tutorID string, date time.Time, interval scheduling.Interval) error {
	windows, err := s.windows.ListByTutorDay(ctx, tutorID, scheduling.DayOfWeek(date))
	if err != nil {
		return storageError(err, "failed to load availability")
	}
	occupied, err := s.bookings.ListOccupied(ctx, tutorID, date, models.BlockingStatuses)
	if err != nil {
		return storageError(err, "failed to load bookings")
	}
	open := make([]scheduling.Interval, 0, len(windows))
	for _, w := range windows {
		open = append(open, w.Interval())
	}
	if err := scheduling.Admit(open, occupied, interval); err != nil {
		return mapSchedulingError(err)
	}
	return nil
}

func (s *BookingService) withBookingLock(ctx context.Context, tutorID string, date time.Time, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := s.locker.WithLock(ctx, lock.BookingKey(tutorID, date), fn)
	s.metrics.ObserveCriticalSection(time.Since(start))
	if err != nil {
		return lockError(err)
	}
	return nil
}

func (s *BookingService) loadForParticipant(ctx context.Context, actor *models.JWTClaims, id string) (*models.BookingView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	view, err := s.bookings.FindView(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "booking not found", "failed to load booking")
	}
	switch {
	case actor.Role == models.RoleAdmin:
	case actor.Role == models.RoleStudent && view.StudentID == actor.UserID:
	case actor.Role == models.RoleTutor && view.TutorUserID == actor.UserID:
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "booking belongs to another user")
	}
	return view, nil
}

func (s *BookingService) checkExpiry(expiry string) error {
	if !expiryPattern.MatchString(expiry) {
		return appErrors.Clone(appErrors.ErrValidation, "expiry must be in MM/YY format")
	}
	month, _ := strconv.Atoi(expiry[:2])
	year, _ := strconv.Atoi(expiry[3:])
	// card is valid through the last day of its expiry month
	expiresAt := time.Date(2000+year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	if !s.now().UTC().Before(expiresAt) {
		return appErrors.Clone(appErrors.ErrValidation, "card has expired")
	}
	return nil
}

func (s *BookingService) today() time.Time {
	return scheduling.Truncate(s.now().UTC())
}

func invalidTransition(from, to models.BookingStatus) error {
	return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move booking from %s to %s", from, to))
}

func statusUpdateError(err error, message string) error {
	if errors.Is(err, repository.ErrStatusChanged) {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "booking status changed, reload and retry")
	}
	return storageError(err, message)
}

func admissionOutcome(err error) string {
	switch {
	case appErrors.HasCode(err, appErrors.ErrOutsideAvailability):
		return OutcomeOutsideAvailability
	case appErrors.HasCode(err, appErrors.ErrSlotConflict):
		return OutcomeSlotConflict
	case appErrors.HasCode(err, appErrors.ErrSlotBeingBooked):
		return OutcomeLockTimeout
	default:
		return OutcomeRejected
	}
}

func newTransactionID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TRANS-" + strings.ToUpper(id[:8])
}
