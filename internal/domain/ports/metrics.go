package ports

import "time"

// MetricsRecorder receives business events from the orchestration engine
type MetricsRecorder interface {
	// RecordSubmission is called once per submission with the channel
	// ("terminal" or "recurring_inbound") and the resulting state, or "refused"
	// when nothing was persisted.
	RecordSubmission(channel, outcome string, duration time.Duration)
	RecordMerchantLookup(success bool, duration time.Duration)
	RecordProcessorCall(outcome string, duration time.Duration)
	RecordRecurringRegistration(success bool)
	RecordReconciled(count int)
}

// NopMetrics discards every event
type NopMetrics struct{}

func (NopMetrics) RecordSubmission(string, string, time.Duration) {}
func (NopMetrics) RecordMerchantLookup(bool, time.Duration)       {}
func (NopMetrics) RecordProcessorCall(string, time.Duration)      {}
func (NopMetrics) RecordRecurringRegistration(bool)               {}
func (NopMetrics) RecordReconciled(int)                           {}
