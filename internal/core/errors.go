package core

import (
	"errors"
	"fmt"
)

// Error classes. Every concrete error returned by this module matches one of
// them through errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("referential conflict")
	ErrNotFound   = errors.New("not found")
)

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }
func (e *validationError) Unwrap() error { return ErrValidation }

func newValidationError(msg string) error {
	return &validationError{msg: msg}
}

// Invalidf builds a validation error with a formatted message.
func Invalidf(format string, args ...any) error {
	return newValidationError(fmt.Sprintf(format, args...))
}

// Conflictf builds a referential-conflict error with a formatted message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

var (
	ErrMissingOwner          = newValidationError("missing owner")
	ErrInvalidAmount         = newValidationError("invalid amount")
	ErrNegativeAmount        = newValidationError("amount must not be negative")
	ErrEmptyName             = newValidationError("empty name")
	ErrEmptyDescription      = newValidationError("empty description")
	ErrInvalidDate           = newValidationError("invalid date")
	ErrInvalidAccountType    = newValidationError("invalid account type")
	ErrInvalidCurrency       = newValidationError("invalid currency")
	ErrInvalidTxType         = newValidationError("invalid transaction type")
	ErrInvalidColor          = newValidationError("invalid category color")
	ErrInvalidPeriod         = newValidationError("invalid budget period")
	ErrInvalidMonth          = newValidationError("invalid month")
	ErrInvalidYear           = newValidationError("invalid year")
	ErrInvalidStatus         = newValidationError("invalid goal status")
	ErrInvalidFrequency      = newValidationError("invalid frequency")
	ErrInvalidDayOfMonth     = newValidationError("invalid day of month")
	ErrMissingAccount        = newValidationError("missing account")
	ErrMissingCategory       = newValidationError("missing category")
	ErrMissingDestination    = newValidationError("transfer requires a destination account")
	ErrUnexpectedDestination = newValidationError("destination account is only allowed on transfers")
	ErrSelfTransfer          = newValidationError("transfer destination must differ from source")
	ErrCategoryPolarity      = newValidationError("category type does not match transaction type")
	ErrCategoryCycle         = newValidationError("category hierarchy contains a cycle")
	ErrSelfParent            = newValidationError("category cannot be its own parent")
)
