package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError reports a record rejected at the mutation boundary.
// It wraps one of the sentinel errors so callers can use errors.Is.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// Invalid builds a ValidationError for field.
func Invalid(field string, err error) error {
	return invalid(field, err)
}

func validateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid(field, ErrInvalidAmount)
	}
	return nil
}

// ValidateAmount rejects zero and negative amounts.
func ValidateAmount(field string, amount decimal.Decimal) error {
	return validateAmount(field, amount)
}
