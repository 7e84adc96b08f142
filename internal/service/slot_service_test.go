package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
	appErrors "github.com/noah-isme/lingua-tutor-api/pkg/errors"
)

func confirm(t *testing.T, env *testEnv, start, end string) *models.Booking {
	t.Helper()
	booking, err := env.propose(env.student, monday, start, end)
	require.NoError(t, err)
	_, err = env.bookings.CapturePayment(context.Background(), env.student, booking.ID, validCard())
	require.NoError(t, err)
	return booking
}

func TestResolveIsIdempotent(t *testing.T) {
	env := newTestEnv(t, scheduling.SlotPolicyWholeWindow)
	env.addWindow(t, 0, "14:00", "16:00")
	env.addWindow(t, 0, "09:00", "12:00")

	first, err := env.slots.Resolve(context.Background(), "t1", monday)
	require.NoError(t, err)
	second, err := env.slots.Resolve(context.Background(), "t1", monday)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []scheduling.Interval{iv(t, "09:00", "12:00"), iv(t, "14:00", "16:00")}, first)
}

func TestResolveSplitPolicyOffersRemainder(t *testing.T) {
	env := newTestEnv(t, scheduling.SlotPolicySplit)
	env.addWindow(t, 0, "09:00", "12:00")
	confirm(t, env, "10:00", "11:00")

	slots, err := env.slots.Resolve(context.Background(), "t1", monday)
	require.NoError(t, err)
	assert.Equal(t, []scheduling.Interval{iv(t, "09:00", "10:00"), iv(t, "11:00", "12:00")}, slots)
}

func TestResolveServesFromCacheUntilInvalidated(t *testing.T) {
	env := newTestEnv(t, scheduling.SlotPolicyWholeWindow)
	ctx := context.Background()
	env.addWindow(t, 0, "09:00", "12:00")

	_, err := env.slots.Resolve(ctx, "t1", monday)
	require.NoError(t, err)
	calls := env.store.occupiedCalls
	assert.Equal(t, 1, env.cache.len())

	_, err = env.slots.Resolve(ctx, "t1", monday)
	require.NoError(t, err)
	assert.Equal(t, calls, env.store.occupiedCalls)

	confirm(t, env, "09:00", "10:00")
	assert.Zero(t, env.cache.len())

	slots, err := env.slots.Resolve(ctx, "t1", monday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

// gatedOccupancy parks the first ListOccupied call after it has read the store
// until release is closed.
type gatedOccupancy struct {
	inner   occupancySource
	once    sync.Once
	reached chan struct{}
	release chan struct{}
}

func newGatedOccupancy(inner occupancySource) *gatedOccupancy {
	return &gatedOccupancy{inner: inner, reached: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedOccupancy) ListOccupied(ctx context.Context, tutorID string, date time.Time, statuses []models.BookingStatus) ([]scheduling.Interval, error) {
	out, err := g.inner.ListOccupied(ctx, tutorID, date, statuses)
	g.once.Do(func() {
		close(g.reached)
		<-g.release
	})
	return out, err
}

func TestResolveInFlightAcrossConfirmDoesNotServeStaleSlots(t *testing.T) {
	env := newTestEnv(t, scheduling.SlotPolicyWholeWindow)
	ctx := context.Background()
	env.addWindow(t, 0, "09:00", "12:00")

	gate := newGatedOccupancy(fakeBookings{env.store})
	replica := NewSlotService(fakeWindows{env.store}, gate, fakeTutors{env.store}, env.slots.cache, nil, nil, SlotConfig{Policy: scheduling.SlotPolicyWholeWindow})
	replica.now = func() time.Time { return fixedNow }

	done := make(chan error, 1)
	go func() {
		_, err := replica.Resolve(ctx, "t1", monday)
		done <- err
	}()
	<-gate.reached

	confirm(t, env, "09:00", "10:00")
	close(gate.release)
	require.NoError(t, <-done)

	slots, err := env.slots.Resolve(ctx, "t1", monday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestResolveSkipsCacheWhenInvalidatedMidRead(t *testing.T) {
	env := newTestEnv(t, scheduling.SlotPolicyWholeWindow)
	ctx := context.Background()
	env.addWindow(t, 0, "09:00", "12:00")

	gate := newGatedOccupancy(fakeBookings{env.store})
	svc := NewSlotService(fakeWindows{env.store}, gate, fakeTutors{env.store}, env.slots.cache, nil, nil, SlotConfig{Policy: scheduling.SlotPolicyWholeWindow})
	svc.now = func() time.Time { return fixedNow }

	done := make(chan error, 1)
	go func() {
		_, err := svc.Resolve(ctx, "t1", monday)
		done <- err
	}()
	<-gate.reached

	svc.Invalidate(ctx, "t1")
	close(gate.release)
	require.NoError(t, <-done)
	assert.Zero(t, env.cache.len())

	calls := env.store.occupiedCalls
	_, err := svc.Resolve(ctx, "t1", monday)
	require.NoError(t, err)
	assert.Equal(t, calls+1, env.store.occupiedCalls)
	assert.Equal(t, 1, env.cache.len())
}

func TestResolvePastDateIsEmpty(t *testing.T) {
	env := newTestEnv(t, scheduling.SlotPolicyWholeWindow)
	env.addWindow(t, 0, "09:00", "12:00")

	lastMonday := monday.AddDate(0, 0, -7)
	slots, err := env.slots.Resolve(context.Background(), "t1", lastMonday)
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestResolveUnknownTutor(t *testing.T) {
	env := newTestEnv(t, scheduling.SlotPolicyWholeWindow)
	_, err := env.slots.Resolve(context.Background(), "nobody", monday)
	assertCode(t, err, appErrors.ErrNotFound)
}

func TestCalendarOmitsDaysWithoutSlots(t *testing.T) {
	env := newTestEnv(t, scheduling.SlotPolicyWholeWindow)
	env.addWindow(t, 0, "09:00", "12:00")
	env.addWindow(t, 3, "18:00", "20:00")

	days, err := env.slots.Calendar(context.Background(), "t1", fixedNow, 7)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-01-04", days[0].Date)
	assert.Equal(t, "Thursday", days[0].DayName)
	assert.Equal(t, "2024-01-08", days[1].Date)
	assert.Equal(t, "09:00", days[1].Slots[0].Start)
}

func TestCalendarClampsStartToToday(t *testing.T) {
	env := newTestEnv(t, scheduling.SlotPolicyWholeWindow)
	env.addWindow(t, 2, "09:00", "10:00")

	days, err := env.slots.Calendar(context.Background(), "t1", fixedNow.AddDate(0, -1, 0), 1)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2024-01-03", days[0].Date)
}

func TestBookableDatesIgnoreOccupancy(t *testing.T) {
	env := newTestEnv(t, scheduling.SlotPolicyWholeWindow)
	env.addWindow(t, 0, "09:00", "10:00")
	confirm(t, env, "09:00", "10:00")

	dates, err := env.slots.BookableDates(context.Background(), "t1", fixedNow, 14)
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, "2024-01-08", dates[0].Date)
	assert.Equal(t, "2024-01-15", dates[1].Date)
	assert.Equal(t, "Monday", dates[1].DayName)
}
