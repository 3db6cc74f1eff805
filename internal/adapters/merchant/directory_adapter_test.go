package merchant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/kevin07696/transaction-gateway/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryAdapter_Lookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/comercios/pos/POS001", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"codigo_comercio": "COM123",
			"nombre_comercio": "Cafe Central",
			"swift_banco": "PICHECEQ",
			"cuenta_iban": "EC12PICH0000000001234567",
			"estado": "ACT"
		}`))
	}))
	defer server.Close()

	adapter := NewDirectoryAdapter(server.URL, server.Client(), nil)
	got, err := adapter.Lookup(context.Background(), "POS001")
	require.NoError(t, err)

	assert.Equal(t, "COM123", got.MerchantCode)
	assert.Equal(t, "Cafe Central", got.MerchantName)
	assert.Equal(t, "PICHECEQ", got.SettlementSwift)
	assert.Equal(t, "EC12PICH0000000001234567", got.SettlementIban)
	assert.Equal(t, "ACT", got.MerchantStatus)
}

func TestDirectoryAdapter_Lookup_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		category pkgerrors.ErrorCategory
	}{
		{"unknown_terminal", http.StatusNotFound, ``, pkgerrors.CategoryInvalidRequest},
		{"server_error", http.StatusInternalServerError, ``, pkgerrors.CategorySystemError},
		{"malformed_body", http.StatusOK, `not json`, pkgerrors.CategoryDecodeError},
		{"empty_body", http.StatusOK, ``, pkgerrors.CategoryDecodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			adapter := NewDirectoryAdapter(server.URL, server.Client(), nil)
			_, err := adapter.Lookup(context.Background(), "POS001")
			require.Error(t, err)
			assert.Equal(t, tt.category, pkgerrors.CategoryOf(err))
		})
	}
}

func TestDirectoryAdapter_Lookup_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	adapter := NewDirectoryAdapter(url, http.DefaultClient, nil)
	_, err := adapter.Lookup(context.Background(), "POS001")
	assert.Equal(t, pkgerrors.CategoryNetworkError, pkgerrors.CategoryOf(err))
}

func TestDirectoryAdapter_Lookup_EmptyCode(t *testing.T) {
	adapter := NewDirectoryAdapter("http://unused", http.DefaultClient, nil)
	_, err := adapter.Lookup(context.Background(), "")
	assert.Error(t, err)
}
