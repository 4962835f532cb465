package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInvalidTaxRate    = errors.New("tax rate must be between 0 and 1")
	ErrInvalidPercentage = errors.New("percentage must be between 0 and 100")
	ErrInvalidMultiplier = errors.New("multiplier must not be negative")
	ErrNegativeAmount    = errors.New("amount must not be negative")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrUnknownCurrency   = errors.New("unknown currency")
	ErrAmountOverflow    = errors.New("amount overflows minor units")
	ErrSubMinorPrecision = errors.New("amount has more precision than the currency allows")
)

// ValidationError is returned for caller-supplied input that the pricing
// functions refuse to work with. It is never retried; the caller must fix
// the input. Use errors.Is against the sentinel errors above to tell the
// cases apart.
type ValidationError struct {
	Field string
	Value any
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v (got %v)", e.Field, e.Err, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, value any, err error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Err: err}
}

// IsValidationError reports whether err carries a *ValidationError anywhere in
// its chain.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
