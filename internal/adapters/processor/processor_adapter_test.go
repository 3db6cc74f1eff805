package processor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kevin07696/transaction-gateway/internal/domain/ports"
	pkgerrors "github.com/kevin07696/transaction-gateway/pkg/errors"
	"github.com/kevin07696/transaction-gateway/pkg/resilience"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() *ports.AuthorizationRequest {
	return &ports.AuthorizationRequest{
		Amount:           decimal.RequireFromString("120.5"),
		PosCode:          "POS001",
		MerchantCode:     "COM123",
		Kind:             "PAYMENT",
		Brand:            "VISA",
		Modality:         ports.ModalitySimple,
		Currency:         "USD",
		CardNumber:       "4111111111111111",
		CardholderName:   "ANA TORRES",
		CardExpiry:       "12/27",
		CorrelationCode:  "corr-1",
		SettlementSwift:  "PICHECEQ",
		SettlementIban:   "EC12PICH0000000001234567",
		EncryptedPayload: "payload",
		GatewayTag:       "gtw-1",
		SecurityCode:     123,
	}
}

func TestAdapter_Authorize_Approved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/procesar-pago", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "POS001", payload["codigoPOS"])
		assert.Equal(t, "COM123", payload["codigoComercio"])
		assert.Equal(t, "SIMPLE", payload["modalidad"])
		assert.Equal(t, "120.5", payload["monto"])
		assert.Equal(t, "12/27", payload["fechaExpiracion"])
		assert.Equal(t, "corr-1", payload["codigoUnicoTransaccion"])
		assert.Equal(t, "PICHECEQ", payload["swiftBanco"])
		assert.Equal(t, "gtw-1", payload["gtwId"])

		_, _ = w.Write([]byte(`{"estado":"APROBADA","codigo":"00","mensaje":"ok"}`))
	}))
	defer server.Close()

	adapter := NewAdapter(server.URL, "key", server.Client(), nil, nil)
	outcome, err := adapter.Authorize(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, http.StatusOK, outcome.StatusCode)
	assert.Equal(t, "00", outcome.ResponseCode)
	assert.Equal(t, "ok", outcome.Message)
}

func TestAdapter_Authorize_Declines(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"bad_request", http.StatusBadRequest, `{"estado":"RECHAZADA","codigo":"01","mensaje":"no funds"}`},
		{"server_error", http.StatusServiceUnavailable, ``},
		{"conflict", http.StatusConflict, `{"estado":"RECHAZADA"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			adapter := NewAdapter(server.URL, "", server.Client(), nil, nil)
			outcome, err := adapter.Authorize(context.Background(), sampleRequest())
			require.NoError(t, err)
			assert.False(t, outcome.Success)
			assert.Equal(t, tt.status, outcome.StatusCode)
		})
	}
}

func TestAdapter_Authorize_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	adapter := NewAdapter(server.URL, "", server.Client(), nil, nil)
	_, err := adapter.Authorize(ctx, sampleRequest())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CategoryNetworkError, pkgerrors.CategoryOf(err))
}

func TestAdapter_Authorize_CircuitOpens(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:         2,
		Timeout:             time.Minute,
		MaxRequestsHalfOpen: 1,
	})
	adapter := NewAdapter(server.URL, "", server.Client(), breaker, nil)

	for i := 0; i < 2; i++ {
		outcome, err := adapter.Authorize(context.Background(), sampleRequest())
		require.NoError(t, err)
		assert.False(t, outcome.Success)
	}
	assert.Equal(t, resilience.StateOpen, adapter.CircuitState())

	_, err := adapter.Authorize(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CategoryCircuitOpen, pkgerrors.CategoryOf(err))
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestAdapter_Authorize_DeclinesDoNotOpenCircuit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Minute, MaxRequestsHalfOpen: 1})
	adapter := NewAdapter(server.URL, "", server.Client(), breaker, nil)

	for i := 0; i < 3; i++ {
		_, err := adapter.Authorize(context.Background(), sampleRequest())
		require.NoError(t, err)
	}
	assert.Equal(t, resilience.StateClosed, adapter.CircuitState())
}
