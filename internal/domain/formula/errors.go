package formula

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidFinancialInput = errors.New("invalid financial input")
	ErrInvalidDriverScore    = errors.New("invalid driver score")
	ErrInvalidCoefficients   = errors.New("invalid coefficients")
)

// InputError describes a hard rejection of one input field.
type InputError struct {
	Kind   error
	Field  string
	Value  float64
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%v: %s %s (got %g)", e.Kind, e.Field, e.Reason, e.Value)
}

func (e *InputError) Unwrap() error { return e.Kind }

func financialError(field string, v float64, reason string) error {
	return &InputError{Kind: ErrInvalidFinancialInput, Field: field, Value: v, Reason: reason}
}

func driverError(field string, v float64, reason string) error {
	return &InputError{Kind: ErrInvalidDriverScore, Field: field, Value: v, Reason: reason}
}
