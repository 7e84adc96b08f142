package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
	appErrors "github.com/noah-isme/lingua-tutor-api/pkg/errors"
)

func completedBooking(t *testing.T, env *testEnv, start, end string) *models.Booking {
	t.Helper()
	booking := confirm(t, env, start, end)
	_, err := env.bookings.Complete(context.Background(), env.tutor, booking.ID)
	require.NoError(t, err)
	return booking
}

func TestReviewCompletedSession(t *testing.T) {
	env := newTestEnv(t, scheduling.SlotPolicyWholeWindow)
	ctx := context.Background()
	env.addWindow(t, 0, "09:00", "12:00")
	booking := completedBooking(t, env, "09:00", "10:00")

	review, err := env.reviews.Create(ctx, env.student, booking.ID, models.CreateReviewRequest{Rating: 4, Comment: "Great session"})
	require.NoError(t, err)
	assert.Equal(t, "t1", review.TutorID)

	_, err = env.reviews.Create(ctx, env.student, booking.ID, models.CreateReviewRequest{Rating: 5})
	assertCode(t, err, appErrors.ErrReviewExists)

	reviews, err := env.reviews.ListForTutor(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "sam", reviews[0].StudentUsername)

	tutor, err := fakeTutors{env.store}.FindByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, tutor.AvgRating)
	assert.Equal(t, 1, tutor.ReviewCount)
}

func TestReviewRequiresCompletedOwnBooking(t *testing.T) {
	env := newTestEnv(t, scheduling.SlotPolicyWholeWindow)
	ctx := context.Background()
	env.addWindow(t, 0, "09:00", "12:00")

	confirmed := confirm(t, env, "09:00", "10:00")
	_, err := env.reviews.Create(ctx, env.student, confirmed.ID, models.CreateReviewRequest{Rating: 5})
	assertCode(t, err, appErrors.ErrValidation)

	completed := completedBooking(t, env, "10:00", "11:00")
	_, err = env.reviews.Create(ctx, env.other, completed.ID, models.CreateReviewRequest{Rating: 5})
	assertCode(t, err, appErrors.ErrForbidden)

	_, err = env.reviews.Create(ctx, env.tutor, completed.ID, models.CreateReviewRequest{Rating: 5})
	assertCode(t, err, appErrors.ErrForbidden)

	for _, rating := range []int{0, 6} {
		_, err = env.reviews.Create(ctx, env.student, completed.ID, models.CreateReviewRequest{Rating: rating})
		assertCode(t, err, appErrors.ErrValidation)
	}

	_, err = env.reviews.Create(ctx, env.student, "missing", models.CreateReviewRequest{Rating: 5})
	assertCode(t, err, appErrors.ErrNotFound)

	_, err = env.reviews.ListForTutor(ctx, "nobody")
	assertCode(t, err, appErrors.ErrNotFound)
}
