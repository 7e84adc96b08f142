package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStatusChanged is returned when a conditional status update finds the
	// row no longer in the expected state.
	ErrStatusChanged = errors.New("status changed concurrently")
	// ErrSlotTaken is returned when confirming a booking would overlap another
	// confirmed booking of the same tutor.
	ErrSlotTaken = errors.New("slot already confirmed")
)

const (
	uniqueViolation    = "23505"
	exclusionViolation = "23P01"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func isExclusionViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == exclusionViolation
}
