package particles

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned when population counts or shape
// parameters cannot produce a usable dataset.
var ErrInvalidConfiguration = errors.New("particles: invalid configuration")

// ConfigError reports the offending configuration field.
type ConfigError struct {
	// Field is the configuration key that failed validation.
	Field string

	// Value is the rejected value.
	Value float64

	// Reason says which constraint was violated.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("particles: invalid configuration: %s=%v (%s)", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("particles: invalid configuration: %s=%v", e.Field, e.Value)
}

// Unwrap returns ErrInvalidConfiguration so callers can use errors.Is.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// Invalid builds a ConfigError for field with the given value and reason.
func Invalid(field string, value float64, reason string) error {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}
