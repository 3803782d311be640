package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError reports malformed or out-of-bounds input. Never
// retried; surfaced verbatim to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// EligibilityError reports a business-rule gate failure, such as an
// insufficient lifetime investment total.
type EligibilityError struct {
	Message string
}

func (e *EligibilityError) Error() string { return e.Message }

func NewEligibilityError(format string, args ...any) *EligibilityError {
	return &EligibilityError{Message: fmt.Sprintf(format, args...)}
}

// InvalidStateError reports a transition that is not legal from the
// plan's current status.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string { return e.Message }

func NewInvalidStateError(format string, args ...any) *InvalidStateError {
	return &InvalidStateError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an operation on an entity that does not exist
// or does not belong to the caller.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func NewNotFoundError(format string, args ...any) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientFundsError is a soft failure: during scheduled execution
// it causes an automatic pause plus an audit record instead of
// propagating. Synchronous callers may surface it directly.
type InsufficientFundsError struct {
	Needed    decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: needed %s, available %s",
		e.Needed.StringFixed(2), e.Available.StringFixed(2))
}

// StorageError wraps a transient storage failure (lock timeout,
// connectivity). Batch processing counts it as failed and leaves the
// plan due, so the next tick retries naturally.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsRetryable reports whether the error is a transient storage failure
func IsRetryable(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
