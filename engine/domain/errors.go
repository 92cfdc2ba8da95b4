package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation and derating failures.
var (
	ErrMalformedResponse = errors.New("response is not well-formed structured data")
	ErrEmptyDocument     = errors.New("document has no content")
	ErrUnknownSourceKind = errors.New("unknown source kind")
	ErrAmpacityUndefined = errors.New("ampacity undefined for conductor")
	ErrAmbientOutOfRange = errors.New("ambient temperature outside correction table")
)

// ValidationError wraps a sentinel with the field and raw value that
// failed, so callers can turn it into a flag instead of aborting.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
