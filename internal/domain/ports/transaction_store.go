package ports

import (
	"context"
	"time"

	"github.com/kevin07696/transaction-gateway/internal/domain"
)

// TransactionStore is durable keyed storage for transaction records.
// Implementations guarantee per-record atomicity only; there is no
// cross-call transaction spanning a whole submission.
type TransactionStore interface {
	// Create persists a new record. The record's ID must be set.
	Create(ctx context.Context, record *domain.TransactionRecord) error

	// UpdateState overwrites the state unconditionally and returns the updated record.
	// Returns a TXN_NOT_FOUND domain error if the id is unknown.
	UpdateState(ctx context.Context, id string, state domain.TransactionState) (*domain.TransactionRecord, error)

	// TransitionState moves a record from one state to another only if it is
	// currently in the expected state (compare-and-set). Returns TXN_INVALID_STATE
	// when the current state differs and TXN_NOT_FOUND when the id is unknown.
	TransitionState(ctx context.Context, id string, from, to domain.TransactionState) (*domain.TransactionRecord, error)

	// FindByID returns TXN_NOT_FOUND if the id is unknown
	FindByID(ctx context.Context, id string) (*domain.TransactionRecord, error)

	// FindByCorrelationCode returns the most recently created record carrying the code
	FindByCorrelationCode(ctx context.Context, code string) (*domain.TransactionRecord, error)

	// Search returns records matching the filter, newest first, at most filter.Limit rows
	Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.TransactionRecord, error)

	// ListStalePending returns PENDING records created before the cutoff, oldest first
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.TransactionRecord, error)
}
