package resilience

import (
	"context"
	"time"
)

// TimeoutConfig bounds every blocking step of a submission.
//
//	HTTP handler (30s)
//	  -> merchant lookup (5s)
//	  -> processor dispatch (15s)
//	  -> recurring registration (5s)
//	state finalization (5s, detached from the caller)
type TimeoutConfig struct {
	HTTPHandler           time.Duration
	CronJob               time.Duration
	MerchantLookup        time.Duration
	Processor             time.Duration
	RecurringRegistration time.Duration
	StateWrite            time.Duration
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler:           30 * time.Second,
		CronJob:               5 * time.Minute,
		MerchantLookup:        5 * time.Second,
		Processor:             15 * time.Second,
		RecurringRegistration: 5 * time.Second,
		StateWrite:            5 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler:           5 * time.Second,
		CronJob:               10 * time.Second,
		MerchantLookup:        time.Second,
		Processor:             2 * time.Second,
		RecurringRegistration: time.Second,
		StateWrite:            time.Second,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// CronContext creates a context with timeout for cron jobs
func (tc *TimeoutConfig) CronContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.CronJob)
}

// MerchantContext bounds a merchant-directory lookup
func (tc *TimeoutConfig) MerchantContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.MerchantLookup)
}

// ProcessorContext bounds a single processor dispatch
func (tc *TimeoutConfig) ProcessorContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Processor)
}

// RecurringContext bounds a recurring-billing registration
func (tc *TimeoutConfig) RecurringContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.RecurringRegistration)
}

// DetachedWriteContext keeps the parent's values but not its cancellation or deadline,
// so a state write still lands after the caller has gone away.
func (tc *TimeoutConfig) DetachedWriteContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), tc.StateWrite)
}
