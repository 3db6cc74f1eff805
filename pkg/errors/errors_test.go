package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGatewayError_Error(t *testing.T) {
	err := StatusError("processor", http.StatusBadGateway)
	assert.Equal(t, "processor UPSTREAM_ERROR: upstream server error (status 502)", err.Error())
	assert.True(t, err.IsRetriable)

	err = StatusError("merchant", http.StatusNotFound)
	assert.Equal(t, CategoryInvalidRequest, err.Category)
	assert.False(t, err.IsRetriable)
}

func TestGatewayError_UnwrapAndHelpers(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NetworkError("merchant", context.DeadlineExceeded))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsRetriable(err))
	assert.Equal(t, CategoryNetworkError, CategoryOf(err))
	assert.Equal(t, ErrorCategory(""), CategoryOf(fmt.Errorf("plain")))
}
