package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to the API and CLI layers. Callers classify with errors.Is.
var (
	ErrOracleUnavailable = errors.New("price oracle unavailable")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrPersistence       = errors.New("persistence failed")
	ErrAlreadyExists     = errors.New("already exists")
)

// ErrAlreadyClosed is reported as a not-found: a closed position cannot be
// the target of close or simulate.
var ErrAlreadyClosed = fmt.Errorf("position already closed: %w", ErrNotFound)

// Invalid returns a validation error describing the offending field.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
