package observability

import (
	"time"

	"github.com/kevin07696/transaction-gateway/internal/domain/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gatewaySubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_submissions_total",
		Help: "Total transaction submissions by channel and final outcome",
	}, []string{
		"channel", // terminal, recurring_inbound
		"outcome", // ACTIVE, REJECTED, ERROR, refused
	})

	gatewaySubmissionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_submission_duration_seconds",
		Help:    "End-to-end time to handle a submission",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"channel"})

	merchantLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_merchant_lookups_total",
		Help: "Merchant directory lookups",
	}, []string{"result"})

	merchantLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gateway_merchant_lookup_duration_seconds",
		Help:    "Merchant directory lookup latency",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	processorCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_processor_calls_total",
		Help: "Payment processor dispatches by outcome",
	}, []string{"outcome"}) // approved, declined, error

	processorCallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gateway_processor_call_duration_seconds",
		Help:    "Payment processor latency",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
	})

	recurringRegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_recurring_registrations_total",
		Help: "Recurring schedule registrations; failures are not surfaced to callers",
	}, []string{"result"})

	reconciledPendingTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_reconciled_pending_total",
		Help: "Stale PENDING records moved to ERROR by the reconciler",
	})

	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gateway_circuit_breaker_state",
		Help: "Circuit breaker state per upstream (0=closed, 1=open, 2=half-open)",
	}, []string{"upstream"})
)

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// BusinessMetrics implements ports.MetricsRecorder on the Prometheus default registry
type BusinessMetrics struct{}

var _ ports.MetricsRecorder = BusinessMetrics{}

// RecordSubmission counts a submission and observes its duration
func (BusinessMetrics) RecordSubmission(channel, outcome string, duration time.Duration) {
	gatewaySubmissionsTotal.WithLabelValues(channel, outcome).Inc()
	gatewaySubmissionDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordMerchantLookup counts a merchant directory lookup
func (BusinessMetrics) RecordMerchantLookup(success bool, duration time.Duration) {
	merchantLookupsTotal.WithLabelValues(resultLabel(success)).Inc()
	merchantLookupDuration.Observe(duration.Seconds())
}

// RecordProcessorCall counts a processor dispatch
func (BusinessMetrics) RecordProcessorCall(outcome string, duration time.Duration) {
	processorCallsTotal.WithLabelValues(outcome).Inc()
	processorCallDuration.Observe(duration.Seconds())
}

// RecordRecurringRegistration counts a registration attempt
func (BusinessMetrics) RecordRecurringRegistration(success bool) {
	recurringRegistrationsTotal.WithLabelValues(resultLabel(success)).Inc()
}

// RecordReconciled adds reconciled records
func (BusinessMetrics) RecordReconciled(count int) {
	reconciledPendingTotal.Add(float64(count))
}

// SetCircuitState publishes a breaker state; state follows resilience.CircuitState numbering
func SetCircuitState(upstream string, state int) {
	circuitBreakerState.WithLabelValues(upstream).Set(float64(state))
}
