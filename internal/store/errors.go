package store

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dgraph-io/badger/v4"
)

// Error is a store error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)

	kind string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error derived from the same sentinel, whatever its message or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.kind != "" && e.kind == t.kind
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{
		Code:    e.Code,
		Message: msg,
		Err:     e.Err,
		kind:    e.kind,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
		kind:    e.kind,
	}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "document not found",
		kind:    "not_found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "document already exists",
		kind:    "already_exists",
	}

	ErrInvalidInput = &Error{
		Code:    http.StatusBadRequest,
		Message: "invalid input",
		kind:    "invalid_input",
	}

	// ErrTooManyKeys is returned when an identifier-set lookup exceeds MaxInValues.
	ErrTooManyKeys = &Error{
		Code:    http.StatusBadRequest,
		Message: "too many keys in one lookup",
		kind:    "too_many_keys",
	}

	// ErrBatchTooLarge is returned when a write batch exceeds MaxBatchWrites.
	ErrBatchTooLarge = &Error{
		Code:    http.StatusRequestEntityTooLarge,
		Message: "write batch too large",
		kind:    "batch_too_large",
	}

	// ErrPreconditionFailed is returned when a Check write does not hold at commit time.
	ErrPreconditionFailed = &Error{
		Code:    http.StatusPreconditionFailed,
		Message: "precondition failed",
		kind:    "precondition_failed",
	}

	// ErrConflict is returned when a concurrent transaction touched the same documents.
	ErrConflict = &Error{
		Code:    http.StatusConflict,
		Message: "transaction conflict",
		kind:    "conflict",
	}
)

// IsTransient reports whether err is safe to retry as-is: contention, preconditions
// invalidated by a concurrent writer, and context deadlines.
func IsTransient(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrConflict), errors.Is(err, ErrPreconditionFailed):
		return true
	case errors.Is(err, badger.ErrConflict):
		return true
	default:
		return false
	}
}

// IsPermanent reports whether retrying err unchanged cannot succeed.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrTooManyKeys) ||
		errors.Is(err, ErrBatchTooLarge) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyExists)
}
