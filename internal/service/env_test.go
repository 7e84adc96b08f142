package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
	"github.com/noah-isme/lingua-tutor-api/pkg/lock"
)

func jsonMarshal(v interface{}) ([]byte, error)   { return json.Marshal(v) }
func jsonUnmarshal(b []byte, v interface{}) error { return json.Unmarshal(b, v) }

// fixedNow is Wednesday 2024-01-03 10:00 UTC; the following Monday is 2024-01-08.
var fixedNow = time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)

var monday = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	store        *memStore
	cache        *memCache
	tutorProfile models.TutorProfile
	tutor        *models.JWTClaims
	student      *models.JWTClaims
	other        *models.JWTClaims
	admin        *models.JWTClaims

	availability *AvailabilityService
	slots        *SlotService
	bookings     *BookingService
	reviews      *ReviewService
	earnings     *EarningsService
}

func newTestEnv(t *testing.T, policy scheduling.SlotPolicy) *testEnv {
	t.Helper()
	store := newMemStore()
	cache := newMemCache()

	store.users["u-tutor"] = models.User{ID: "u-tutor", Username: "maria", Role: models.RoleTutor}
	store.users["u-student"] = models.User{ID: "u-student", Username: "sam", Role: models.RoleStudent}
	store.users["u-other"] = models.User{ID: "u-other", Username: "olga", Role: models.RoleStudent}
	profile := models.TutorProfile{ID: "t1", UserID: "u-tutor", HourlyRate: 30, Specialization: "Spanish"}
	store.profiles[profile.ID] = profile

	tutors := fakeTutors{store}
	windows := fakeWindows{store}
	bookings := fakeBookings{store}
	payments := fakePayments{store}

	locker := lock.NewLocalLocker(time.Second)
	cacheSvc := NewCacheService(cache, nil, time.Minute, nil, true)
	slots := NewSlotService(windows, bookings, tutors, cacheSvc, nil, nil, SlotConfig{Policy: policy})
	slots.now = func() time.Time { return fixedNow }

	bookingSvc := NewBookingService(bookings, payments, windows, tutors, locker, slots, nil, nil, nil, BookingConfig{PlatformFeeRate: 0.20, Currency: "EUR"})
	bookingSvc.now = func() time.Time { return fixedNow }

	earnings := NewEarningsService(payments, tutors, "EUR", nil)
	earnings.now = func() time.Time { return fixedNow }

	return &testEnv{
		store:        store,
		cache:        cache,
		tutorProfile: profile,
		tutor:        &models.JWTClaims{UserID: "u-tutor", Username: "maria", Role: models.RoleTutor},
		student:      &models.JWTClaims{UserID: "u-student", Username: "sam", Role: models.RoleStudent},
		other:        &models.JWTClaims{UserID: "u-other", Username: "olga", Role: models.RoleStudent},
		admin:        &models.JWTClaims{UserID: "u-admin", Username: "root", Role: models.RoleAdmin},
		availability: NewAvailabilityService(windows, tutors, locker, slots, nil, nil),
		slots:        slots,
		bookings:     bookingSvc,
		reviews:      NewReviewService(fakeReviews{store}, bookings, tutors, nil, nil),
		earnings:     earnings,
	}
}

func (e *testEnv) addWindow(t *testing.T, day int, start, end string) *models.AvailabilityWindow {
	t.Helper()
	w, err := e.availability.AddWindow(context.Background(), e.tutor, models.CreateAvailabilityRequest{DayOfWeek: &day, StartTime: start, EndTime: end})
	require.NoError(t, err)
	return w
}

func (e *testEnv) propose(actor *models.JWTClaims, date time.Time, start, end string) (*models.Booking, error) {
	return e.bookings.Propose(context.Background(), actor, models.CreateBookingRequest{
		TutorID:   e.tutorProfile.ID,
		Date:      scheduling.FormatDate(date),
		StartTime: start,
		EndTime:   end,
	})
}

func validCard() models.CapturePaymentRequest {
	return models.CapturePaymentRequest{CardNumber: "4242424242424242", Expiry: "12/30", CVC: "123", CardHolder: "Sam Student"}
}

func iv(t *testing.T, start, end string) scheduling.Interval {
	t.Helper()
	i, err := scheduling.ParseInterval(start, end)
	require.NoError(t, err)
	return i
}
