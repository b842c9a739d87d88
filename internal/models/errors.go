package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned by lookups by id or category. Callers treat it as a no-op.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds is wrapped by InsufficientFundsError
	ErrInsufficientFunds = errors.New("insufficient balance")
)

// ValidationError reports a missing or invalid input field. The action is aborted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid is shorthand for constructing a ValidationError
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParseError reports malformed persisted or imported data. No partial recovery is attempted.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParse reports whether err is (or wraps) a ParseError
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// InsufficientFundsError is returned when a withdrawal or transfer exceeds the balance
type InsufficientFundsError struct {
	Balance   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: current balance %s, requested %s",
		e.Balance.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }
