package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDomainErrors_Predicates tests the error classification helpers
func TestDomainErrors_Predicates(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		validation bool
		notFound   bool
		upstream   bool
		invalid    bool
	}{
		{
			name:       "validation_error",
			err:        NewValidationError("amount", "amount must be greater than zero"),
			validation: true,
			invalid:    true,
		},
		{
			name:     "not_found",
			err:      NewNotFoundError("abc123"),
			notFound: true,
		},
		{
			name:     "merchant_unavailable",
			err:      WrapError(ErrorCodeUpstreamUnavailable, "merchant data unavailable", errors.New("dial tcp")),
			upstream: true,
			invalid:  true,
		},
		{
			name:     "processor_rejected",
			err:      ErrProcessorRejected,
			upstream: true,
			invalid:  true,
		},
		{
			name:     "processing_error",
			err:      WrapError(ErrorCodeProcessingError, "processing error: timeout", nil),
			upstream: true,
			invalid:  true,
		},
		{
			name: "recurring_registration_is_not_caller_facing",
			err:  WrapError(ErrorCodeRecurringRegistration, "recurring registration failed", errors.New("503")),
		},
		{
			name: "plain_error",
			err:  errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.validation, IsValidationError(tt.err))
			assert.Equal(t, tt.notFound, IsNotFoundError(tt.err))
			assert.Equal(t, tt.upstream, IsUpstreamError(tt.err))
			assert.Equal(t, tt.invalid, IsInvalidTransaction(tt.err))
		})
	}
}

func TestDomainError_WrappingPreservesCode(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("submit: %w", WrapError(ErrorCodeUpstreamUnavailable, "merchant data unavailable", cause))

	assert.Equal(t, ErrorCodeUpstreamUnavailable, GetErrorCode(err))
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrMerchantUnavailable)
	assert.NotErrorIs(t, err, ErrProcessorRejected)
	assert.True(t, strings.Contains(err.Error(), "connection refused"))
}

func TestDomainError_ValidationCarriesField(t *testing.T) {
	err := NewValidationError("country", "country code must be 2 characters")

	var de *DomainError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, "country", de.Field)
	assert.Equal(t, "VALIDATION_FAILED: country code must be 2 characters", err.Error())
}

func TestGetErrorCode_NonDomainError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("x")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(nil))
}
