package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kevin07696/transaction-gateway/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(id, code string, state domain.TransactionState) *domain.TransactionRecord {
	return &domain.TransactionRecord{
		ID:              id,
		CorrelationCode: code,
		Kind:            domain.KindPayment,
		Brand:           "VISA",
		Amount:          decimal.RequireFromString("10.00"),
		Currency:        "USD",
		Country:         "EC",
		CardNumber:      "4111111111111111",
		State:           state,
	}
}

func TestTransactionStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()

	rec := newRecord("a1", "code-1", domain.StatePending)
	require.NoError(t, store.Create(ctx, rec))

	got, err := store.FindByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "code-1", got.CorrelationCode)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)

	// returned copies do not alias stored records
	got.State = domain.StateActive
	again, err := store.FindByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePending, again.State)
}

func TestTransactionStore_CreateDuplicateID(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()

	require.NoError(t, store.Create(ctx, newRecord("a1", "c", domain.StatePending)))
	err := store.Create(ctx, newRecord("a1", "c", domain.StatePending))
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeDatabaseError))
}

func TestTransactionStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()

	_, err := store.FindByID(ctx, "missing")
	assert.True(t, domain.IsNotFoundError(err))

	_, err = store.FindByCorrelationCode(ctx, "missing")
	assert.True(t, domain.IsNotFoundError(err))

	_, err = store.UpdateState(ctx, "missing", domain.StateActive)
	assert.True(t, domain.IsNotFoundError(err))

	_, err = store.TransitionState(ctx, "missing", domain.StatePending, domain.StateActive)
	assert.True(t, domain.IsNotFoundError(err))
}

func TestTransactionStore_TransitionState(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()
	require.NoError(t, store.Create(ctx, newRecord("a1", "c", domain.StatePending)))

	updated, err := store.TransitionState(ctx, "a1", domain.StatePending, domain.StateActive)
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, updated.State)

	_, err = store.TransitionState(ctx, "a1", domain.StatePending, domain.StateError)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeTxnInvalidState))

	got, _ := store.FindByID(ctx, "a1")
	assert.Equal(t, domain.StateActive, got.State)
}

func TestTransactionStore_TransitionState_SingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()
	require.NoError(t, store.Create(ctx, newRecord("a1", "c", domain.StatePending)))

	targets := []domain.TransactionState{domain.StateActive, domain.StateRejected, domain.StateError}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(to domain.TransactionState) {
			defer wg.Done()
			if _, err := store.TransitionState(ctx, "a1", domain.StatePending, to); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(targets[i%len(targets)])
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestTransactionStore_UpdateStateIsUnconditional(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()
	require.NoError(t, store.Create(ctx, newRecord("a1", "c", domain.StateRejected)))

	updated, err := store.UpdateState(ctx, "a1", domain.StateInactive)
	require.NoError(t, err)
	assert.Equal(t, domain.StateInactive, updated.State)
}

func TestTransactionStore_FindByCorrelationCode_Newest(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()

	require.NoError(t, store.Create(ctx, newRecord("first", "dup", domain.StatePending)))
	require.NoError(t, store.Create(ctx, newRecord("other", "x", domain.StatePending)))
	require.NoError(t, store.Create(ctx, newRecord("second", "dup", domain.StatePending)))

	got, err := store.FindByCorrelationCode(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, "second", got.ID)
}

func TestTransactionStore_Search(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()

	for i := 0; i < 5; i++ {
		rec := newRecord(fmt.Sprintf("id-%d", i), "c", domain.StateActive)
		if i%2 == 0 {
			rec.Currency = "EUR"
		}
		require.NoError(t, store.Create(ctx, rec))
	}

	results, err := store.Search(ctx, domain.SearchFilter{Currency: "EUR"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "id-4", results[0].ID)
	assert.Equal(t, "id-0", results[2].ID)

	limited, err := store.Search(ctx, domain.SearchFilter{State: domain.StateActive, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	minAmount := decimal.RequireFromString("50")
	none, err := store.Search(ctx, domain.SearchFilter{MinAmount: &minAmount})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTransactionStore_ListStalePending(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	old := newRecord("old", "c", domain.StatePending)
	old.CreatedAt = base.Add(-time.Hour)
	fresh := newRecord("fresh", "c", domain.StatePending)
	fresh.CreatedAt = base.Add(time.Minute)
	done := newRecord("done", "c", domain.StateActive)
	done.CreatedAt = base.Add(-2 * time.Hour)

	require.NoError(t, store.Create(ctx, old))
	require.NoError(t, store.Create(ctx, fresh))
	require.NoError(t, store.Create(ctx, done))

	stale, err := store.ListStalePending(ctx, base, 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "old", stale[0].ID)
}

func TestTransactionStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewTransactionStore().Create(ctx, newRecord("a1", "c", domain.StatePending))
	assert.ErrorIs(t, err, context.Canceled)
}
