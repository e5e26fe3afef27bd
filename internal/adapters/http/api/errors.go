package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/sparkapply/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrUnavailable = errors.New("service unavailable")
)

// WrapKind tags err with the operation and an error kind.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// NewKind returns an error of the given kind for op.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// Wrap prefixes err with the operation name.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// statusFor maps an error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrApplicationNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidDirection),
		errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
