// Package errors describes failures talking to the gateway's upstream services.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of error for handling
type ErrorCategory string

const (
	CategoryNetworkError   ErrorCategory = "network_error"
	CategorySystemError    ErrorCategory = "system_error"
	CategoryInvalidRequest ErrorCategory = "invalid_request"
	CategoryDeclined       ErrorCategory = "declined"
	CategoryCircuitOpen    ErrorCategory = "circuit_open"
	CategoryDecodeError    ErrorCategory = "decode_error"
)

// GatewayError is a transport-level failure from an upstream service
type GatewayError struct {
	Cause       error
	Upstream    string
	Code        string
	Message     string
	Category    ErrorCategory
	StatusCode  int
	IsRetriable bool
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Upstream, e.Code, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// NewGatewayError creates a new upstream error
func NewGatewayError(upstream, code, message string, category ErrorCategory, retriable bool) *GatewayError {
	return &GatewayError{
		Upstream:    upstream,
		Code:        code,
		Message:     message,
		Category:    category,
		IsRetriable: retriable,
	}
}

// WithCause attaches the underlying error
func (e *GatewayError) WithCause(err error) *GatewayError {
	e.Cause = err
	return e
}

// WithStatus records the HTTP status returned by the upstream
func (e *GatewayError) WithStatus(code int) *GatewayError {
	e.StatusCode = code
	return e
}

// NetworkError reports a connection failure or timeout
func NetworkError(upstream string, cause error) *GatewayError {
	return NewGatewayError(upstream, "NETWORK_ERROR", "failed to reach upstream", CategoryNetworkError, true).
		WithCause(cause)
}

// StatusError classifies a non-2xx response
func StatusError(upstream string, status int) *GatewayError {
	if status >= 500 {
		return NewGatewayError(upstream, "UPSTREAM_ERROR", "upstream server error", CategorySystemError, true).
			WithStatus(status)
	}
	return NewGatewayError(upstream, "REQUEST_ERROR", "upstream refused the request", CategoryInvalidRequest, false).
		WithStatus(status)
}

// IsRetriable reports whether err is a GatewayError marked retriable
func IsRetriable(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.IsRetriable
}

// CategoryOf returns the category of a GatewayError, or "" for other errors
func CategoryOf(err error) ErrorCategory {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Category
	}
	return ""
}
