package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RecurringRegistration is the schedule registered with the recurring-billing service
type RecurringRegistration struct {
	StartDate       time.Time
	EndDate         time.Time
	CardExpiry      time.Time
	Amount          decimal.Decimal
	CorrelationCode string
	Brand           string
	Currency        string
	Country         string
	CardNumber      string
	SettlementSwift string
	SettlementIban  string
	BillingDay      int
	SecurityCode    int
	FrequencyDays   int
}

// RecurringBilling registers future recurring schedules
type RecurringBilling interface {
	Register(ctx context.Context, reg *RecurringRegistration) error

	// Ping checks that the service is reachable
	Ping(ctx context.Context) error
}
