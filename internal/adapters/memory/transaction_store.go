// Package memory provides an in-process TransactionStore used by tests and
// by the server when no database URL is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kevin07696/transaction-gateway/internal/domain"
	"github.com/kevin07696/transaction-gateway/internal/domain/ports"
	"github.com/kevin07696/transaction-gateway/pkg/timeutil"
)

// DefaultSearchLimit caps Search when the filter carries no limit
const DefaultSearchLimit = 100

// TransactionStore keeps records in a map guarded by a mutex
type TransactionStore struct {
	mu      sync.RWMutex
	records map[string]*domain.TransactionRecord
	seq     map[string]uint64
	next    uint64
	now     func() time.Time
}

var _ ports.TransactionStore = (*TransactionStore)(nil)

// NewTransactionStore creates an empty store
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		records: make(map[string]*domain.TransactionRecord),
		seq:     make(map[string]uint64),
		now:     timeutil.Now,
	}
}

// Create stores a copy of the record
func (s *TransactionStore) Create(ctx context.Context, record *domain.TransactionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil || record.ID == "" {
		return fmt.Errorf("create transaction: id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "duplicate transaction id",
			fmt.Errorf("id %s already exists", record.ID))
	}

	c := record.Clone()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	s.next++
	s.seq[c.ID] = s.next
	s.records[c.ID] = c
	return nil
}

// UpdateState overwrites the state regardless of its current value
func (s *TransactionStore) UpdateState(ctx context.Context, id string, state domain.TransactionState) (*domain.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return nil, domain.NewNotFoundError(id)
	}
	r.State = state
	r.UpdatedAt = s.now()
	return r.Clone(), nil
}

// TransitionState applies the write only when the current state equals from
func (s *TransactionStore) TransitionState(ctx context.Context, id string, from, to domain.TransactionState) (*domain.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return nil, domain.NewNotFoundError(id)
	}
	if r.State != from {
		return nil, domain.NewDomainError(domain.ErrorCodeTxnInvalidState,
			fmt.Sprintf("transaction %s is %s, expected %s", id, r.State, from)).
			WithDetail("current_state", string(r.State))
	}
	r.State = to
	r.UpdatedAt = s.now()
	return r.Clone(), nil
}

// FindByID returns a copy of the record
func (s *TransactionStore) FindByID(ctx context.Context, id string) (*domain.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, domain.NewNotFoundError(id)
	}
	return r.Clone(), nil
}

// FindByCorrelationCode returns the most recently created record with the code
func (s *TransactionStore) FindByCorrelationCode(ctx context.Context, code string) (*domain.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		found   *domain.TransactionRecord
		lastSeq uint64
	)
	for id, r := range s.records {
		if r.CorrelationCode != code {
			continue
		}
		if seq := s.seq[id]; found == nil || seq > lastSeq {
			found, lastSeq = r, seq
		}
	}
	if found == nil {
		return nil, domain.NewNotFoundError(code)
	}
	return found.Clone(), nil
}

// Search returns matching records newest first
func (s *TransactionStore) Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	s.mu.RLock()
	matched := make([]*domain.TransactionRecord, 0)
	for _, r := range s.records {
		if filter.Matches(r) {
			matched = append(matched, r.Clone())
		}
	}
	seq := make(map[string]uint64, len(matched))
	for _, r := range matched {
		seq[r.ID] = s.seq[r.ID]
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return seq[matched[i].ID] > seq[matched[j].ID]
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// ListStalePending returns PENDING records created before the cutoff, oldest first
func (s *TransactionStore) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	stale := make([]*domain.TransactionRecord, 0)
	seq := make(map[string]uint64)
	for id, r := range s.records {
		if r.State == domain.StatePending && r.CreatedAt.Before(createdBefore) {
			stale = append(stale, r.Clone())
			seq[id] = s.seq[id]
		}
	}
	s.mu.RUnlock()

	sort.Slice(stale, func(i, j int) bool {
		return seq[stale[i].ID] < seq[stale[j].ID]
	})
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

// Len reports the number of stored records
func (s *TransactionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
