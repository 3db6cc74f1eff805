package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Transaction Errors (TXN_*)
	ErrorCodeTxnNotFound     ErrorCode = "TXN_NOT_FOUND"
	ErrorCodeTxnInvalidState ErrorCode = "TXN_INVALID_STATE"

	// Upstream Errors (merchant directory, payment processor)
	ErrorCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrorCodeProcessorRejected   ErrorCode = "PROCESSOR_REJECTED"
	ErrorCodeProcessingError     ErrorCode = "PROCESSING_ERROR"

	// Recurring billing side channel. Never surfaced to callers.
	ErrorCodeRecurringRegistration ErrorCode = "RECURRING_REGISTRATION_FAILED"

	// Internal Errors (INTERNAL_*)
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
	Field   string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code so sentinel values work with errors.Is.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// NewValidationError reports a rule violation on a single field.
func NewValidationError(field, reason string) *DomainError {
	e := NewDomainError(ErrorCodeValidationFailed, reason)
	e.Field = field
	return e
}

// NewNotFoundError reports an unknown transaction identifier or correlation code.
func NewNotFoundError(key string) *DomainError {
	return NewDomainError(ErrorCodeTxnNotFound, fmt.Sprintf("transaction not found: %s", key)).
		WithDetail("key", key)
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	return GetErrorCode(err) == ErrorCodeTxnNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorCode(err) == ErrorCodeValidationFailed
}

// IsUpstreamError checks if an error came from the merchant directory or the processor
func IsUpstreamError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeUpstreamUnavailable ||
		code == ErrorCodeProcessorRejected ||
		code == ErrorCodeProcessingError
}

// IsInvalidTransaction reports whether the submission was refused, either before
// persistence (validation, merchant data) or by the processor outcome.
func IsInvalidTransaction(err error) bool {
	return IsValidationError(err) || IsUpstreamError(err)
}

// Structured error instances
var (
	ErrTxnNotFound     = NewDomainError(ErrorCodeTxnNotFound, "transaction not found")
	ErrTxnInvalidState = NewDomainError(ErrorCodeTxnInvalidState, "transaction is in invalid state for this operation")

	ErrValidationFailed = NewDomainError(ErrorCodeValidationFailed, "validation failed")

	ErrMerchantUnavailable = NewDomainError(ErrorCodeUpstreamUnavailable, "merchant data unavailable")
	ErrProcessorRejected   = NewDomainError(ErrorCodeProcessorRejected, "rejected by processor")

	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
