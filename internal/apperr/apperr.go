// Package apperr defines the error taxonomy shared by services and handlers.
//
// Services return either one of the sentinel kinds (optionally wrapped in an
// *Error carrying a client-safe message) or an arbitrary error, which handlers
// treat as an upstream failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrEventFull    = errors.New("event is full")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("service unavailable")
)

// Error pairs a sentinel kind with a message that is safe to show callers.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Invalid reports malformed input.
func Invalid(format string, args ...any) error { return newf(ErrInvalidInput, format, args...) }

// NotFound reports a missing resource, e.g. NotFound("event").
func NotFound(what string) error { return newf(ErrNotFound, "%s not found", what) }

// Forbidden reports an authenticated caller lacking privileges.
func Forbidden(format string, args ...any) error { return newf(ErrForbidden, format, args...) }

// Conflict reports a state clash such as a duplicate slug.
func Conflict(format string, args ...any) error { return newf(ErrConflict, format, args...) }

// Unavailable reports an optional integration that is not configured.
func Unavailable(format string, args ...any) error { return newf(ErrUnavailable, format, args...) }

// Status maps err to the HTTP status code handlers should answer with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrEventFull):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing text for err. Upstream failures never
// leak their internal message.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if Status(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	for _, kind := range []error{ErrInvalidInput, ErrUnauthorized, ErrForbidden, ErrNotFound, ErrEventFull, ErrConflict, ErrUnavailable} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return err.Error()
}
