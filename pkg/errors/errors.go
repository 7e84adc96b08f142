package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so callers can use errors.Is against
// the predefined values below.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// WrapAs wraps err using the code and status of a predefined error.
func WrapAs(err error, kind *Error, message string) *Error {
	if message == "" {
		message = kind.Message
	}
	return Wrap(err, kind.Code, kind.Status, message)
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid username or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrStorage            = New("STORAGE_ERROR", http.StatusInternalServerError, "storage failure")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	ErrMalformedInput       = New("MALFORMED_INPUT", http.StatusBadRequest, "malformed date or time")
	ErrInvalidInterval      = New("INVALID_INTERVAL", http.StatusBadRequest, "start time must be before end time")
	ErrAvailabilityOverlap  = New("AVAILABILITY_OVERLAP", http.StatusConflict, "availability overlaps an existing window")
	ErrOutsideAvailability  = New("OUTSIDE_AVAILABILITY", http.StatusUnprocessableEntity, "requested time is outside the tutor's availability")
	ErrSlotConflict         = New("SLOT_CONFLICT", http.StatusConflict, "requested time has already been booked")
	ErrSlotBeingBooked      = New("SLOT_BEING_BOOKED", http.StatusConflict, "this tutor's calendar is being updated, please retry")
	ErrInvalidTransition    = New("INVALID_STATUS_TRANSITION", http.StatusConflict, "invalid booking status transition")
	ErrPaymentExists        = New("PAYMENT_EXISTS", http.StatusConflict, "payment has already been processed for this booking")
	ErrReviewExists         = New("REVIEW_EXISTS", http.StatusConflict, "session has already been reviewed")
	ErrUsernameTaken        = New("USERNAME_TAKEN", http.StatusConflict, "username or email already registered")
	ErrUnsupportedFormat    = New("UNSUPPORTED_FORMAT", http.StatusBadRequest, "unsupported export format")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// HasCode reports whether err carries the code of kind.
func HasCode(err error, kind *Error) bool {
	appErr := FromError(err)
	return appErr != nil && kind != nil && appErr.Code == kind.Code
}
