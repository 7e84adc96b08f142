package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lingua-tutor-api/internal/models"
	"github.com/noah-isme/lingua-tutor-api/internal/scheduling"
)

func TestListOccupied(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	date := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"start_time", "end_time"}).AddRow("10:00:00", "11:00:00")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT start_time, end_time FROM bookings WHERE tutor_id = $1 AND booking_date = $2 AND status = ANY($3) ORDER BY start_time")).
		WithArgs("t1", "2024-01-08", sqlmock.AnyArg()).
		WillReturnRows(rows)

	busy, err := repo.ListOccupied(context.Background(), "t1", date, models.BlockingStatuses)
	require.NoError(t, err)
	require.Len(t, busy, 1)
	assert.Equal(t, scheduling.Interval{Start: scheduling.MustClock(10, 0), End: scheduling.MustClock(11, 0)}, busy[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOccupiedNoStatuses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	busy, err := repo.ListOccupied(context.Background(), "t1", time.Now(), nil)
	require.NoError(t, err)
	assert.Empty(t, busy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusConditional(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4")).
		WithArgs("b1", string(models.BookingCompleted), sqlmock.AnyArg(), string(models.BookingConfirmed)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "b1", models.BookingConfirmed, models.BookingCompleted)
	assert.ErrorIs(t, err, ErrStatusChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelRefundsInOneTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs("b1", string(models.BookingCancelled), sqlmock.AnyArg(), string(models.BookingConfirmed)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET status = $2 WHERE booking_id = $1 AND status = $3")).
		WithArgs("b1", string(models.PaymentRefunded), string(models.PaymentCompleted)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	refunded, err := repo.Cancel(context.Background(), "b1", models.BookingConfirmed)
	require.NoError(t, err)
	assert.True(t, refunded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelRollsBackOnStaleStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Cancel(context.Background(), "b1", models.BookingPending)
	assert.ErrorIs(t, err, ErrStatusChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUpcomingForStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	today := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "student_id", "tutor_id", "booking_date", "start_time", "end_time", "status", "price", "created_at", "updated_at", "student_username", "tutor_username", "tutor_user_id"}
	rows := sqlmock.NewRows(cols).
		AddRow("b1", "s1", "t1", today, "09:00:00", "10:00:00", "PENDING", 25.0, today, today, "sam", "maria", "u1")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.student_id = $1 AND b.status = ANY($2) AND b.booking_date >= $3 ORDER BY b.booking_date ASC, b.start_time ASC")).
		WithArgs("s1", sqlmock.AnyArg(), "2024-01-08").
		WillReturnRows(rows)

	views, err := repo.List(context.Background(), models.BookingFilter{StudentID: "s1", Scope: models.ScopeUpcoming, Today: today})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "maria", views[0].TutorUsername)
	assert.Equal(t, models.BookingPending, views[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
