package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(i int) *int {
	return &i
}

func TestComputeSchedule(t *testing.T) {
	ref := time.Date(2024, 1, 15, 13, 45, 0, 0, time.UTC)

	tests := []struct {
		name          string
		frequency     *int
		expectedEnd   time.Time
		expectedFreq  int
		expectedStart time.Time
	}{
		{
			name:          "thirty_day_cadence_spans_cadence_times_twelve",
			frequency:     intPtr(30),
			expectedStart: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 360),
			expectedFreq:  30,
		},
		{
			name:          "weekly_cadence",
			frequency:     intPtr(7),
			expectedStart: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC),
			expectedFreq:  7,
		},
		{
			name:          "missing_cadence_defaults_to_monthly_for_a_year",
			frequency:     nil,
			expectedStart: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			expectedFreq:  DefaultFrequencyDays,
		},
		{
			name:          "zero_cadence_defaults_to_monthly_for_a_year",
			frequency:     intPtr(0),
			expectedStart: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			expectedFreq:  DefaultFrequencyDays,
		},
		{
			name:          "negative_cadence_defaults_to_monthly_for_a_year",
			frequency:     intPtr(-5),
			expectedStart: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			expectedFreq:  DefaultFrequencyDays,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ComputeSchedule(tt.frequency, ref)

			assert.Equal(t, tt.expectedStart, s.Start)
			assert.Equal(t, tt.expectedEnd, s.End)
			assert.Equal(t, 15, s.BillingDay)
			assert.Equal(t, tt.expectedFreq, s.FrequencyDays)
		})
	}
}

func TestComputeSchedule_ThirtyDaysFromMidJanuary(t *testing.T) {
	s := ComputeSchedule(intPtr(30), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "2024-01-15", s.Start.Format("2006-01-02"))
	assert.Equal(t, "2025-01-09", s.End.Format("2006-01-02"))
	assert.Equal(t, 15, s.BillingDay)
}

func TestComputeSchedule_BillingDayFollowsStart(t *testing.T) {
	s := ComputeSchedule(nil, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 29, s.BillingDay)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), s.End)
}
