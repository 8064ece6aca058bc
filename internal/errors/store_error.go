package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// StatusClientClosedRequest mirrors the nginx convention for a caller that went away.
const StatusClientClosedRequest = 499

// Soft and validation causes. They travel wrapped in a StoreError.
var (
	ErrSelfReaction     = errors.New("cannot react to your own profile")
	ErrUnresolvedTarget = errors.New("target user could not be resolved")
	ErrInvalidAction    = errors.New("unknown action")
	ErrNotParticipant   = errors.New("not a participant")
	ErrNotRecipient     = errors.New("like was not addressed to this user")
)

// StoreError is the only error kind returned by public operations.
// Status is HTTP-style; Cause keeps the raw failure for logs and errors.Is.
type StoreError struct {
	Op     string
	Status int
	Cause  error
}

func (e *StoreError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }

// Store wraps cause with an explicit status.
func Store(op string, status int, cause error) error {
	return &StoreError{Op: op, Status: status, Cause: cause}
}

func BadRequest(op string, cause error) error { return Store(op, http.StatusBadRequest, cause) }
func Forbidden(op string, cause error) error  { return Store(op, http.StatusForbidden, cause) }
func NotFound(op string, cause error) error   { return Store(op, http.StatusNotFound, cause) }

// BadRequestf builds a 400 with a formatted cause.
func BadRequestf(op, format string, args ...any) error {
	return BadRequest(op, fmt.Errorf(format, args...))
}

// Normalize converts any error into a StoreError at an operation boundary.
// nil stays nil; an existing StoreError passes through untouched.
func Normalize(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Store(op, http.StatusGatewayTimeout, err)
	case errors.Is(err, context.Canceled):
		return Store(op, StatusClientClosedRequest, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Store(op, http.StatusNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Store(op, http.StatusConflict, err)
	default:
		return Store(op, http.StatusInternalServerError, err)
	}
}

// StatusOf returns the HTTP-style status carried by err (500 for foreign errors).
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return toStoreError(err).Status
}

func toStoreError(err error) *StoreError {
	var se *StoreError
	if errors.As(err, &se) {
		return se
	}
	return Normalize("", err).(*StoreError)
}

// Is and As re-export the standard helpers so callers importing this package
// under its own name still have them at hand.
func Is(err, target error) bool { return errors.Is(err, target) }
func As(err error, target any) bool { return errors.As(err, target) }
