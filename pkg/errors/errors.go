package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrTransactionExists       = errors.New("transaction already exists")
	ErrInvalidSelection        = errors.New("invalid installment selection")
	ErrNoScheduledInstallments = errors.New("no scheduled installments remain")
	ErrInvalidPaymentAmount    = errors.New("invalid payment amount")
	ErrRecordNotFound          = errors.New("early payment record not found")
	ErrInvalidPaymentPlan      = errors.New("unsupported payment plan")
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
	ErrCodeTransactionNotFound     = "TRANSACTION_NOT_FOUND"
	ErrCodeTransactionExists       = "TRANSACTION_ALREADY_EXISTS"
	ErrCodeInvalidSelection        = "INVALID_SELECTION"
	ErrCodeNoScheduledInstallments = "NO_SCHEDULED_INSTALLMENTS"
	ErrCodeInvalidPaymentAmount    = "INVALID_PAYMENT_AMOUNT"
	ErrCodeRecordNotFound          = "RECORD_NOT_FOUND"
	ErrCodeInvalidPaymentPlan      = "INVALID_PAYMENT_PLAN"
	ErrCodeProcessorError          = "PROCESSOR_ERROR"
	ErrCodeDatabaseError           = "DATABASE_ERROR"
	ErrCodeCacheError              = "CACHE_ERROR"
)

// Wrap common errors with business context
func WrapTransactionNotFound(transactionID string) *BusinessError {
	return NewBusinessError(
		ErrCodeTransactionNotFound,
		fmt.Sprintf("Transaction with ID %s not found", transactionID),
		ErrTransactionNotFound,
	)
}

func WrapTransactionExists(transactionID string) *BusinessError {
	return NewBusinessError(
		ErrCodeTransactionExists,
		fmt.Sprintf("Transaction with ID %s already exists", transactionID),
		ErrTransactionExists,
	)
}

func WrapInvalidSelection(detail string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidSelection,
		detail,
		ErrInvalidSelection,
	)
}

func WrapNoScheduledInstallments(transactionID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNoScheduledInstallments,
		fmt.Sprintf("Transaction %s has no scheduled installments to pay off", transactionID),
		ErrNoScheduledInstallments,
	)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapRecordNotFound(recordID string) *BusinessError {
	return NewBusinessError(
		ErrCodeRecordNotFound,
		fmt.Sprintf("Early payment record %s not found", recordID),
		ErrRecordNotFound,
	)
}

func WrapInvalidPaymentPlan(plan int) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentPlan,
		fmt.Sprintf("Payment plan of %d installments is not supported", plan),
		ErrInvalidPaymentPlan,
	)
}

func WrapProcessorError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeProcessorError,
		"payment processor call failed",
		err,
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
		"Cache operation failed",
		err,
	)
}
