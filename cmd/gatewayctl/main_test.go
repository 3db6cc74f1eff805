package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kevin07696/transaction-gateway/internal/adapters/memory"
	"github.com/kevin07696/transaction-gateway/internal/domain"
	"github.com/kevin07696/transaction-gateway/internal/domain/ports"
	"github.com/kevin07696/transaction-gateway/internal/testutil/fixtures"
	"github.com/kevin07696/transaction-gateway/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCLI(t *testing.T, records ...*domain.TransactionRecord) (*cli, *bytes.Buffer) {
	t.Helper()
	store := memory.NewTransactionStore()
	for _, r := range records {
		require.NoError(t, store.Create(context.Background(), r))
	}

	out := &bytes.Buffer{}
	return &cli{
		open: func(context.Context) (ports.TransactionStore, func(), error) {
			return store, func() {}, nil
		},
		logger: &mocks.RecordingLogger{},
		out:    out,
	}, out
}

func run(c *cli, args ...string) error {
	cmd := c.rootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestGet(t *testing.T) {
	c, out := newTestCLI(t, fixtures.NewRecord().WithID("abc123def0").Build())

	require.NoError(t, run(c, "get", "abc123def0"))

	var got domain.TransactionRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "abc123def0", got.ID)
}

func TestGet_NotFound(t *testing.T) {
	c, _ := newTestCLI(t)
	err := run(c, "get", "missing")
	assert.True(t, domain.IsNotFoundError(err))
}

func TestFindByCode(t *testing.T) {
	c, out := newTestCLI(t, fixtures.NewRecord().WithCorrelationCode("CORR-9").Build())

	require.NoError(t, run(c, "find-by-code", "CORR-9"))
	assert.Contains(t, out.String(), "CORR-9")
}

func TestSetState(t *testing.T) {
	c, out := newTestCLI(t, fixtures.NewRecord().WithID("abc123def0").WithState(domain.StateActive).Build())

	require.NoError(t, run(c, "set-state", "abc123def0", "INA"))
	var got domain.TransactionRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, domain.StateInactive, got.State)

	err := run(c, "set-state", "abc123def0", "ERROR")
	assert.True(t, domain.IsValidationError(err))
}

func TestSearch(t *testing.T) {
	c, out := newTestCLI(t,
		fixtures.NewRecord().WithCurrency("USD").Build(),
		fixtures.NewRecord().WithCurrency("EUR").Build(),
	)

	require.NoError(t, run(c, "search", "--currency", "EUR"))
	var got []domain.TransactionRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "EUR", got[0].Currency)
}

func TestReconcile(t *testing.T) {
	stale := fixtures.NewRecord().WithCreatedAt(time.Now().UTC().Add(-time.Hour)).Build()
	fresh := fixtures.NewRecord().Build()
	c, out := newTestCLI(t, stale, fresh)

	require.NoError(t, run(c, "reconcile", "--stale-after", "30m"))
	assert.Contains(t, out.String(), `"reconciled": 1`)
}

func TestSchedule(t *testing.T) {
	c, out := newTestCLI(t)

	require.NoError(t, run(c, "schedule", "--frequency", "30", "--start", "2024-01-15"))

	var got scheduleOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "2024-01-15", got.Start)
	assert.Equal(t, "2025-01-09", got.End)
	assert.Equal(t, 15, got.BillingDay)
	assert.Equal(t, 30, got.FrequencyDays)
}

func TestSchedule_DefaultCadence(t *testing.T) {
	c, out := newTestCLI(t)

	require.NoError(t, run(c, "schedule", "--start", "2024-01-15"))

	var got scheduleOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "2025-01-15", got.End)
	assert.Equal(t, domain.DefaultFrequencyDays, got.FrequencyDays)
}

func TestOpenFailure(t *testing.T) {
	c, _ := newTestCLI(t)
	c.open = func(context.Context) (ports.TransactionStore, func(), error) {
		return nil, nil, errors.New("no database configured")
	}
	assert.ErrorContains(t, run(c, "get", "x"), "no database configured")
}

func TestOutputMasksCardNumber(t *testing.T) {
	c, out := newTestCLI(t, fixtures.NewRecord().WithID("abc123def0").Build())

	require.NoError(t, run(c, "get", "abc123def0"))
	assert.NotContains(t, out.String(), fixtures.TestCardNumber)
	assert.Contains(t, out.String(), "411111******1111")
}
