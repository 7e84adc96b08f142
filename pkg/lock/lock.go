// Package lock provides keyed mutual exclusion for booking admission.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrLockNotAcquired is returned when the wait budget elapses before the key
// becomes free.
var ErrLockNotAcquired = errors.New("lock not acquired")

// Locker runs fn while holding an exclusive lock on key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// BookingKey scopes the admission critical section to one tutor and one date.
func BookingKey(tutorID string, date time.Time) string {
	return fmt.Sprintf("booking:%s:%s", tutorID, date.Format("2006-01-02"))
}
