package cis

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Common CIS calculation errors
var (
	// ErrInvalidAmount is returned when the invoice amount is zero or negative.
	ErrInvalidAmount = errors.New("invoice amount must be greater than zero")

	// ErrInvalidRate is returned when the deduction rate is outside the
	// statutory 0-30 percent range.
	ErrInvalidRate = errors.New("deduction rate must be between 0 and 30 percent")

	// ErrUnknownVerificationStatus is returned when a verification status has
	// no statutory rate mapping.
	ErrUnknownVerificationStatus = errors.New("unknown CIS verification status")
)

// CalculationError wraps a calculation failure with the offending inputs so
// callers can render a precise message.
type CalculationError struct {
	Amount decimal.Decimal
	Rate   decimal.Decimal
	Err    error
}

// Error implements the error interface.
func (e *CalculationError) Error() string {
	return fmt.Sprintf("cis: calculation failed for amount=%s rate=%s: %v",
		e.Amount.StringFixed(2), e.Rate.String(), e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *CalculationError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *CalculationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newCalculationError(amount, rate decimal.Decimal, err error) *CalculationError {
	return &CalculationError{Amount: amount, Rate: rate, Err: err}
}
