package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	defaultCheckTimeout = 2 * time.Second
)

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// CheckFunc probes one dependency. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// Pinger is satisfied by the database executor and the recurring-billing adapter
type Pinger interface {
	Ping(ctx context.Context) error
}

type namedCheck struct {
	name     string
	fn       CheckFunc
	critical bool
}

// HealthChecker runs the registered dependency checks.
// A failing critical check makes the service unhealthy; a failing
// non-critical check only degrades it.
type HealthChecker struct {
	mu      sync.RWMutex
	checks  []namedCheck
	timeout time.Duration
}

// NewHealthChecker creates a HealthChecker with no checks
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{timeout: defaultCheckTimeout}
}

// AddCheck registers a dependency check
func (h *HealthChecker) AddCheck(name string, critical bool, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, namedCheck{name: name, fn: fn, critical: critical})
}

// AddPinger registers a Pinger as a check
func (h *HealthChecker) AddPinger(name string, critical bool, p Pinger) {
	h.AddCheck(name, critical, p.Ping)
}

// Check performs health checks and returns the status
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	h.mu.RLock()
	checks := make([]namedCheck, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	sort.SliceStable(checks, func(i, j int) bool { return checks[i].name < checks[j].name })

	results := make(map[string]string, len(checks))
	overall := StatusHealthy
	for _, c := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := c.fn(checkCtx)
		cancel()

		if err == nil {
			results[c.name] = StatusHealthy
			continue
		}
		results[c.name] = StatusUnhealthy + ": " + err.Error()
		switch {
		case c.critical:
			overall = StatusUnhealthy
		case overall == StatusHealthy:
			overall = StatusDegraded
		}
	}

	return HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Checks:    results,
	}
}

// HealthHandler returns an HTTP handler for health checks.
// Degraded still answers 200 so load balancers keep routing.
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := h.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if status.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(status)
	}
}
