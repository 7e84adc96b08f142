package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/internal/repository"
	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
	appErrors "github.com/noah-isme/lingua-tutor-api/pkg/errors"
)

// memStore backs the fake repositories below with plain maps.
type memStore struct {
	mu       sync.Mutex
	users    map[string]models.User
	profiles map[string]models.TutorProfile
	windows  map[string]models.AvailabilityWindow
	bookings map[string]models.Booking
	payments map[string]models.Payment
	reviews  []models.Review

	occupiedCalls int
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]models.User{},
		profiles: map[string]models.TutorProfile{},
		windows:  map[string]models.AvailabilityWindow{},
		bookings: map[string]models.Booking{},
		payments: map[string]models.Payment{},
	}
}

type fakeUsers struct{ *memStore }

func (f fakeUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (f fakeUsers) Create(ctx context.Context, user *models.User, profile *models.TutorProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username || (user.Email != "" && u.Email == user.Email) {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	f.users[user.ID] = *user
	if profile != nil {
		if profile.ID == "" {
			profile.ID = uuid.NewString()
		}
		profile.UserID = user.ID
		f.profiles[profile.ID] = *profile
	}
	return nil
}

type fakeTutors struct{ *memStore }

func (f fakeTutors) FindByUserID(ctx context.Context, userID string) (*models.TutorProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.UserID == userID {
			p := p
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeTutors) FindByID(ctx context.Context, id string) (*models.TutorSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	summary := f.summaryLocked(p)
	return &summary, nil
}

func (f fakeTutors) summaryLocked(p models.TutorProfile) models.TutorSummary {
	summary := models.TutorSummary{TutorProfile: p, Username: f.users[p.UserID].Username}
	total := 0
	for _, r := range f.reviews {
		if r.TutorID == p.ID {
			total += r.Rating
			summary.ReviewCount++
		}
	}
	if summary.ReviewCount > 0 {
		summary.AvgRating = float64(total) / float64(summary.ReviewCount)
	}
	return summary
}

func (f fakeTutors) List(ctx context.Context, filter models.TutorFilter) ([]models.TutorSummary, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TutorSummary
	for _, p := range f.profiles {
		s := f.summaryLocked(p)
		if filter.MinPrice != nil && s.HourlyRate < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && s.HourlyRate > *filter.MaxPrice {
			continue
		}
		if filter.MinRating != nil && s.AvgRating < *filter.MinRating {
			continue
		}
		if filter.Specialization != "" && !strings.Contains(strings.ToLower(s.Specialization), strings.ToLower(filter.Specialization)) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, len(out), nil
}

func (f fakeTutors) Specializations(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, p := range f.profiles {
		if p.Specialization != "" && !seen[p.Specialization] {
			seen[p.Specialization] = true
			out = append(out, p.Specialization)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f fakeTutors) Update(ctx context.Context, profile *models.TutorProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[profile.ID]; !ok {
		return sql.ErrNoRows
	}
	f.profiles[profile.ID] = *profile
	return nil
}

type fakeWindows struct{ *memStore }

func (f fakeWindows) ListByTutorDay(ctx context.Context, tutorID string, day int) ([]models.AvailabilityWindow, error) {
	all, _ := f.ListByTutor(ctx, tutorID)
	var out []models.AvailabilityWindow
	for _, w := range all {
		if w.DayOfWeek == day {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f fakeWindows) ListByTutor(ctx context.Context, tutorID string) ([]models.AvailabilityWindow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AvailabilityWindow
	for _, w := range f.windows {
		if w.TutorID == tutorID && w.Active {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (f fakeWindows) FindByID(ctx context.Context, id string) (*models.AvailabilityWindow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &w, nil
}

func (f fakeWindows) Create(ctx context.Context, window *models.AvailabilityWindow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	window.Active = true
	f.windows[window.ID] = *window
	return nil
}

func (f fakeWindows) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.windows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.windows, id)
	return nil
}

type fakeBookings struct{ *memStore }

func (f fakeBookings) ListOccupied(ctx context.Context, tutorID string, date time.Time, statuses []models.BookingStatus) ([]scheduling.Interval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.occupiedCalls++
	var out []scheduling.Interval
	for _, b := range f.bookings {
		if b.TutorID != tutorID || !b.Date.Equal(date) {
			continue
		}
		for _, s := range statuses {
			if b.Status == s {
				out = append(out, b.Interval())
			}
		}
	}
	scheduling.SortIntervals(out)
	return out, nil
}

func (f fakeBookings) Create(ctx context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	f.bookings[booking.ID] = *booking
	return nil
}

func (f fakeBookings) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &b, nil
}

func (f fakeBookings) FindView(ctx context.Context, id string) (*models.BookingView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	v := f.viewLocked(b)
	return &v, nil
}

func (f fakeBookings) viewLocked(b models.Booking) models.BookingView {
	profile := f.profiles[b.TutorID]
	return models.BookingView{
		Booking:         b,
		StudentUsername: f.users[b.StudentID].Username,
		TutorUsername:   f.users[profile.UserID].Username,
		TutorUserID:     profile.UserID,
	}
}

func (f fakeBookings) List(ctx context.Context, filter models.BookingFilter) ([]models.BookingView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.BookingView
	for _, b := range f.bookings {
		if filter.StudentID != "" && b.StudentID != filter.StudentID {
			continue
		}
		if filter.TutorID != "" && b.TutorID != filter.TutorID {
			continue
		}
		switch filter.Scope {
		case models.ScopeUpcoming:
			if (b.Status != models.BookingPending && b.Status != models.BookingConfirmed) || b.Date.Before(filter.Today) {
				continue
			}
		case models.ScopePast:
			if b.Status != models.BookingCompleted {
				continue
			}
		}
		out = append(out, f.viewLocked(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (f fakeBookings) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateStatusLocked(id, from, to)
}

func (f fakeBookings) updateStatusLocked(id string, from, to models.BookingStatus) error {
	b, ok := f.bookings[id]
	if !ok || b.Status != from {
		return repository.ErrStatusChanged
	}
	b.Status = to
	f.bookings[id] = b
	return nil
}

func (f fakeBookings) Cancel(ctx context.Context, id string, from models.BookingStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateStatusLocked(id, from, models.BookingCancelled); err != nil {
		return false, err
	}
	p, ok := f.payments[id]
	if ok && p.Status == models.PaymentCompleted {
		p.Status = models.PaymentRefunded
		f.payments[id] = p
		return true, nil
	}
	return false, nil
}

type fakePayments struct{ *memStore }

func (f fakePayments) FindByBookingID(ctx context.Context, bookingID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[bookingID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (f fakePayments) Capture(ctx context.Context, payment *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.payments[payment.BookingID]; ok {
		return repository.ErrDuplicate
	}
	if err := (fakeBookings{f.memStore}).updateStatusLocked(payment.BookingID, models.BookingPending, models.BookingConfirmed); err != nil {
		return err
	}
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	f.payments[payment.BookingID] = *payment
	return nil
}

func (f fakePayments) ListTutorEarnings(ctx context.Context, tutorID string) ([]models.EarningsEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.EarningsEntry
	for _, p := range f.payments {
		b := f.bookings[p.BookingID]
		if b.TutorID != tutorID || p.Status != models.PaymentCompleted {
			continue
		}
		out = append(out, models.EarningsEntry{
			BookingID:       b.ID,
			BookingDate:     b.Date,
			StudentUsername: f.users[b.StudentID].Username,
			Amount:          p.Amount,
			PlatformFee:     p.PlatformFee,
			TutorPayout:     p.TutorPayout,
			Currency:        p.Currency,
			PaymentDate:     p.PaymentDate,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentDate.Before(out[j].PaymentDate) })
	return out, nil
}

type fakeReviews struct{ *memStore }

func (f fakeReviews) Create(ctx context.Context, review *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.StudentID == review.StudentID && r.BookingID == review.BookingID {
			return repository.ErrDuplicate
		}
	}
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	f.reviews = append(f.reviews, *review)
	return nil
}

func (f fakeReviews) Exists(ctx context.Context, studentID, bookingID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.StudentID == studentID && r.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeReviews) ListByTutor(ctx context.Context, tutorID string) ([]models.ReviewView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ReviewView
	for i := len(f.reviews) - 1; i >= 0; i-- {
		r := f.reviews[i]
		if r.TutorID == tutorID {
			out = append(out, models.ReviewView{Review: r, StudentUsername: f.users[r.StudentID].Username})
		}
	}
	return out, nil
}

// memCache is an in-memory CacheRepository.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return jsonUnmarshal(raw, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := jsonMarshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memCache) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func assertCode(t *testing.T, err error, kind *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, kind.Code, appErr.Code, "unexpected error: %v", err)
}
