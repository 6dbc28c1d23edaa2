package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist or is
	// not visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a conditional update loses a race, e.g.
	// a request that is no longer pending.
	ErrConflict = errors.New("conflict: entity changed concurrently")

	// ErrRequestExpired is returned when a pending request is past its TTL
	// at the moment of response.
	ErrRequestExpired = errors.New("request expired")

	// ErrForbidden is returned when the caller is not a bound party of the
	// entity it tries to act on.
	ErrForbidden = errors.New("permission denied")
)

// ValidationError marks malformed input. It is surfaced to the caller
// without any state change.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
