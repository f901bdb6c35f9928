package services

import (
	"errors"
	"fmt"
)

// Failure classes. Repositories and stores wrap these with %w and the HTTP
// layer maps them to status codes with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUnavailable     = errors.New("storage unavailable")
	ErrNotFound        = errors.New("not found")
)

// ValidationError describes a rejected input field. It matches ErrInvalidArgument.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }

// unavailable wraps a storage failure so callers see ErrUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
