package orchestration_test

import (
	"context"
	"testing"
	"time"

	"github.com/kevin07696/transaction-gateway/internal/adapters/memory"
	"github.com/kevin07696/transaction-gateway/internal/domain"
	"github.com/kevin07696/transaction-gateway/internal/services/orchestration"
	"github.com/kevin07696/transaction-gateway/internal/testutil/fixtures"
	"github.com/kevin07696/transaction-gateway/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciler_MarksStalePendingAsError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTransactionStore()
	now := time.Now().UTC()

	stale := fixtures.NewRecord().WithID("stale00001").WithCreatedAt(now.Add(-time.Hour)).Build()
	fresh := fixtures.NewRecord().WithID("fresh00001").WithCreatedAt(now).Build()
	done := fixtures.NewRecord().WithID("done000001").WithState(domain.StateActive).WithCreatedAt(now.Add(-time.Hour)).Build()
	for _, r := range []*domain.TransactionRecord{stale, fresh, done} {
		require.NoError(t, store.Create(ctx, r))
	}

	metrics := mocks.NewPermissiveMetrics()
	logger := &mocks.RecordingLogger{}
	r := orchestration.NewReconciler(store, logger, metrics, orchestration.ReconcilerConfig{StaleAfter: 10 * time.Minute})

	result, err := r.ReconcileStalePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Reconciled)
	assert.Equal(t, 0, result.Skipped)

	got, err := store.FindByID(ctx, "stale00001")
	require.NoError(t, err)
	assert.Equal(t, domain.StateError, got.State)

	got, err = store.FindByID(ctx, "fresh00001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePending, got.State)

	got, err = store.FindByID(ctx, "done000001")
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, got.State)

	metrics.AssertCalled(t, "RecordReconciled", 1)
	assert.True(t, logger.Has("warn", "stale pending transaction marked as error"))
}

func TestReconciler_SecondSweepIsNoop(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTransactionStore()
	require.NoError(t, store.Create(ctx,
		fixtures.NewRecord().WithID("stale00001").WithCreatedAt(time.Now().Add(-time.Hour)).Build()))

	r := orchestration.NewReconciler(store, &mocks.RecordingLogger{}, nil, orchestration.ReconcilerConfig{})

	first, err := r.ReconcileStalePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Reconciled)

	second, err := r.ReconcileStalePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Scanned)
}

func TestReconciler_RespectsBatchSize(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTransactionStore()
	old := time.Now().Add(-2 * time.Hour)
	for _, id := range []string{"stale00001", "stale00002", "stale00003"} {
		require.NoError(t, store.Create(ctx, fixtures.NewRecord().WithID(id).WithCreatedAt(old).Build()))
	}

	r := orchestration.NewReconciler(store, &mocks.RecordingLogger{}, nil,
		orchestration.ReconcilerConfig{StaleAfter: time.Minute, BatchSize: 2})

	result, err := r.ReconcileStalePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Reconciled)

	pending, err := store.Search(ctx, domain.SearchFilter{State: domain.StatePending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestReconciler_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := orchestration.NewReconciler(memory.NewTransactionStore(), &mocks.RecordingLogger{}, nil, orchestration.ReconcilerConfig{})
	_, err := r.ReconcileStalePending(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReconciler_SweepSilentWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	logger := &mocks.RecordingLogger{}
	r := orchestration.NewReconciler(memory.NewTransactionStore(), logger, nil, orchestration.ReconcilerConfig{})
	r.Sweep(ctx)

	assert.False(t, logger.Has("warn", "reconciliation sweep failed"))
}
