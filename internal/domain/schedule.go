package domain

import (
	"time"

	"github.com/kevin07696/transaction-gateway/pkg/timeutil"
)

// DefaultFrequencyDays is the cadence used when a schedule is requested without one.
const DefaultFrequencyDays = 30

// scheduleHorizon is the number of cadence periods a registration spans.
const scheduleHorizon = 12

// Schedule describes a recurring billing window
type Schedule struct {
	Start         time.Time
	End           time.Time
	BillingDay    int
	FrequencyDays int
}

// ComputeSchedule derives the billing window for a cadence starting at ref.
//
// With a positive cadence the window ends cadence*12 days after the start. The
// recurring-billing service reads this as the end date, so the product is kept
// as-is even though it is not the date of the twelfth occurrence.
func ComputeSchedule(frequencyDays *int, ref time.Time) Schedule {
	start := timeutil.StartOfDay(ref)

	s := Schedule{
		Start:      start,
		BillingDay: start.Day(),
	}

	if frequencyDays != nil && *frequencyDays > 0 {
		s.FrequencyDays = *frequencyDays
		s.End = start.AddDate(0, 0, *frequencyDays*scheduleHorizon)
		return s
	}

	s.FrequencyDays = DefaultFrequencyDays
	s.End = start.AddDate(0, scheduleHorizon, 0)
	return s
}
