package domain

import (
	"errors"
	"fmt"
)

// ErrIncompleteCurrencyData is returned when a movement lacks the amount
// for the requested reporting currency and no fallback was requested.
var ErrIncompleteCurrencyData = errors.New("incomplete currency data")

// IncompleteCurrencyDataError identifies the movement missing an amount.
type IncompleteCurrencyDataError struct {
	MovementID string
	Currency   Currency
}

func (e *IncompleteCurrencyDataError) Error() string {
	return fmt.Sprintf("movement %s: no amount recorded in %s: %v", e.MovementID, e.Currency, ErrIncompleteCurrencyData)
}

func (e *IncompleteCurrencyDataError) Unwrap() error { return ErrIncompleteCurrencyData }

// ValidationError reports a parameter or record rejected before any
// computation takes place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
