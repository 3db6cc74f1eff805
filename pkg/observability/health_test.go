package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthChecker_Statuses(t *testing.T) {
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("down") }

	tests := []struct {
		name     string
		database CheckFunc
		upstream CheckFunc
		want     string
	}{
		{"all healthy", ok, ok, StatusHealthy},
		{"non-critical failing", ok, fail, StatusDegraded},
		{"critical failing", fail, ok, StatusUnhealthy},
		{"both failing", fail, fail, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker()
			h.AddPinger("database", true, pingerFunc(tt.database))
			h.AddCheck("recurring", false, tt.upstream)

			st := h.Check(context.Background())
			assert.Equal(t, tt.want, st.Status)
			assert.Len(t, st.Checks, 2)
		})
	}
}

func TestHealthChecker_NoChecksIsHealthy(t *testing.T) {
	assert.Equal(t, StatusHealthy, NewHealthChecker().Check(context.Background()).Status)
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthChecker()
	h.AddCheck("database", true, func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	h.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StatusUnhealthy, body.Status)
	assert.Contains(t, body.Checks["database"], "connection refused")
}

func TestMetricsMux_Ready(t *testing.T) {
	healthy := NewHealthChecker()
	rec := httptest.NewRecorder()
	NewMetricsMux(healthy).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	broken := NewHealthChecker()
	broken.AddCheck("database", true, func(context.Context) error { return errors.New("down") })
	rec = httptest.NewRecorder()
	NewMetricsMux(broken).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	NewMetricsMux(healthy).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInstrumentRoute(t *testing.T) {
	counter := httpRequestsTotal.WithLabelValues("GET /v1/test", http.MethodGet, "418")
	before := testutil.ToFloat64(counter)

	h := InstrumentRoute("GET /v1/test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/test", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestSyncHealth(t *testing.T) {
	checker := NewHealthChecker()
	checker.AddCheck("database", true, func(context.Context) error { return errors.New("down") })
	hs := health.NewServer()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		SyncHealth(ctx, checker, hs, time.Hour, zap.NewNop())
		close(done)
	}()

	require.Eventually(t, func() bool {
		resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		return err == nil && resp.Status == healthpb.HealthCheckResponse_NOT_SERVING
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestServingStatus(t *testing.T) {
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, ServingStatus(StatusHealthy))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, ServingStatus(StatusDegraded))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, ServingStatus(StatusUnhealthy))
}
