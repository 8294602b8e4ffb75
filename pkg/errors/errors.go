package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrValidation         = errors.New("invalid loan terms")
	ErrScheduleLocked     = errors.New("schedule has recorded payments")
	ErrInvalidPaymentDate = errors.New("invalid payment date")
	ErrLoanNotFound       = errors.New("loan not found")
	ErrClientNotFound     = errors.New("client not found")
	ErrClientHasLoans     = errors.New("client has registered loans")
	ErrInstallmentMissing = errors.New("installment does not exist")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeScheduleLocked     = "SCHEDULE_LOCKED"
	ErrCodeInvalidPaymentDate = "INVALID_PAYMENT_DATE"
	ErrCodeLoanNotFound       = "LOAN_NOT_FOUND"
	ErrCodeClientNotFound     = "CLIENT_NOT_FOUND"
	ErrCodeClientHasLoans     = "CLIENT_HAS_LOANS"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
	ErrCodeCacheError         = "CACHE_ERROR"
)

// Wrap common errors with business context

func WrapValidation(field, reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		fmt.Sprintf("field %s: %s", field, reason),
		ErrValidation,
	)
}

func WrapScheduleLocked(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeScheduleLocked,
		fmt.Sprintf("loan %s already has recorded payments; schedule cannot be regenerated", loanID),
		ErrScheduleLocked,
	)
}

func WrapFuturePaymentDate(date string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentDate,
		fmt.Sprintf("payment date %s is in the future", date),
		ErrInvalidPaymentDate,
	)
}

func WrapUnknownInstallment(loanID string, sequence int) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentDate,
		fmt.Sprintf("loan %s has no installment #%d", loanID, sequence),
		ErrInstallmentMissing,
	)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("loan %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapClientNotFound(clientID string) *BusinessError {
	return NewBusinessError(
		ErrCodeClientNotFound,
		fmt.Sprintf("client %s not found", clientID),
		ErrClientNotFound,
	)
}

func WrapClientHasLoans(clientID string) *BusinessError {
	return NewBusinessError(
		ErrCodeClientHasLoans,
		fmt.Sprintf("client %s still has registered loans", clientID),
		ErrClientHasLoans,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"cache operation failed",
		err,
	)
}
