// Package apierr holds the errors shared by the service, the http api & its client.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrSessionExpired   = errors.New("session expired")
	ErrUnauthenticated  = errors.New("invalid email or password")
	ErrValidation       = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
)

// Error is what the client builds from a non 2xx response; it unwraps to one of the sentinels
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%d: %v", e.StatusCode, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation wraps ErrValidation with a message that is safe to show a user
func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Status maps an error to the http status the api responds with
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrSessionExpired), errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Message is the text the api puts in an error response; unclassified errors never leak their text
func Message(err error) string {
	if Status(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

// FromStatus is the inverse of Status
func FromStatus(code int, msg string) error {
	var sentinel error
	switch code {
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusForbidden:
		sentinel = ErrPermissionDenied
	case http.StatusUnauthorized:
		sentinel = ErrSessionExpired
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		sentinel = ErrValidation
	case http.StatusConflict:
		sentinel = ErrConflict
	default:
		sentinel = fmt.Errorf("unexpected status %d", code)
	}
	return &Error{StatusCode: code, Message: msg, Err: sentinel}
}
