package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNow_AlwaysUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Now().Location())
}

func TestStartAndEndOfDay(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	tests := []struct {
		name  string
		input time.Time
		start time.Time
		end   time.Time
	}{
		{
			name:  "noon UTC",
			input: time.Date(2025, 11, 20, 12, 30, 45, 0, time.UTC),
			start: time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 11, 20, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name:  "late evening EST rolls into next UTC day",
			input: time.Date(2025, 11, 20, 22, 0, 0, 0, est),
			start: time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 11, 21, 23, 59, 59, 999999999, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.start, StartOfDay(tt.input))
			assert.Equal(t, tt.end, EndOfDay(tt.input))
		})
	}
}

func TestLastDayOfMonth(t *testing.T) {
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), LastDayOfMonth(2024, time.February))
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), LastDayOfMonth(2025, time.February))
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), LastDayOfMonth(2026, time.December))
}

func TestParseBound(t *testing.T) {
	lower, err := ParseBound("2024-01-15", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), lower)

	upper, err := ParseBound("2024-01-15", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 23, 59, 59, 999999999, time.UTC), upper)

	exact, err := ParseBound("2024-01-15T10:30:00+02:00", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC), exact)

	_, err = ParseBound("15/01/2024", false)
	assert.Error(t, err)
}
