package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/transaction-gateway/internal/domain"
	"github.com/kevin07696/transaction-gateway/internal/domain/ports"
)

// DefaultSearchLimit caps Search when the filter carries no limit
const DefaultSearchLimit = 100

const selectColumns = `id, correlation_code, kind, brand, amount, currency, country,
	card_number, card_expiry, bank_swift, bank_iban, deferred, state, auxiliary_note,
	created_at, updated_at`

// TransactionStore implements ports.TransactionStore on PostgreSQL.
// Each method is a single statement, so row-level atomicity comes from Postgres.
type TransactionStore struct {
	db ports.DBTX
}

var _ ports.TransactionStore = (*TransactionStore)(nil)

// NewTransactionStore creates a store that runs on the pool behind db
func NewTransactionStore(db ports.DBPort) *TransactionStore {
	return &TransactionStore{db: db.GetDB()}
}

// WithTx returns a store bound to an open transaction
func (s *TransactionStore) WithTx(tx pgx.Tx) *TransactionStore {
	return &TransactionStore{db: tx}
}

// Create inserts a new record
func (s *TransactionStore) Create(ctx context.Context, record *domain.TransactionRecord) error {
	amount, err := decimalToNumeric(record.Amount)
	if err != nil {
		return err
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO gateway_transactions (
			id, correlation_code, kind, brand, amount, currency, country,
			card_number, card_expiry, bank_swift, bank_iban, deferred, state,
			auxiliary_note, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		record.ID,
		record.CorrelationCode,
		string(record.Kind),
		record.Brand,
		amount,
		record.Currency,
		record.Country,
		nullText(record.CardNumber),
		pgtype.Date{Time: record.CardExpiry, Valid: !record.CardExpiry.IsZero()},
		nullText(record.BankSwift),
		nullText(record.BankIban),
		record.Deferred,
		string(record.State),
		nullText(record.AuxiliaryNote),
		createdAt,
		updatedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "create transaction", err)
	}

	record.CreatedAt = createdAt
	record.UpdatedAt = updatedAt
	return nil
}

// UpdateState overwrites the state regardless of its current value
func (s *TransactionStore) UpdateState(ctx context.Context, id string, state domain.TransactionState) (*domain.TransactionRecord, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE gateway_transactions
		SET state = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+selectColumns,
		id, string(state),
	)

	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFoundError(id)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "update transaction state", err)
	}
	return record, nil
}

// TransitionState updates the row only while it is still in the expected state
func (s *TransactionStore) TransitionState(ctx context.Context, id string, from, to domain.TransactionState) (*domain.TransactionRecord, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE gateway_transactions
		SET state = $3, updated_at = NOW()
		WHERE id = $1 AND state = $2
		RETURNING `+selectColumns,
		id, string(from), string(to),
	)

	record, err := scanRecord(row)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "transition transaction state", err)
	}

	// Zero rows: either the id is unknown or another writer got there first.
	current, findErr := s.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	return nil, domain.NewDomainError(domain.ErrorCodeTxnInvalidState,
		fmt.Sprintf("transaction %s is %s, expected %s", id, current.State, from)).
		WithDetail("current_state", string(current.State))
}

// FindByID retrieves a record by its identifier
func (s *TransactionStore) FindByID(ctx context.Context, id string) (*domain.TransactionRecord, error) {
	row := s.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM gateway_transactions WHERE id = $1`, id)

	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFoundError(id)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "get transaction by id", err)
	}
	return record, nil
}

// FindByCorrelationCode returns the newest record carrying the code
func (s *TransactionStore) FindByCorrelationCode(ctx context.Context, code string) (*domain.TransactionRecord, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+selectColumns+`
		FROM gateway_transactions
		WHERE correlation_code = $1
		ORDER BY seq DESC
		LIMIT 1`, code)

	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFoundError(code)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "get transaction by correlation code", err)
	}
	return record, nil
}

// Search returns matching records newest first
func (s *TransactionStore) Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.TransactionRecord, error) {
	var w whereBuilder
	w.addText("state", string(filter.State))
	w.addText("kind", string(filter.Kind))
	w.addText("brand", filter.Brand)
	w.addText("currency", filter.Currency)
	w.addText("country", filter.Country)
	w.addText("card_number", filter.CardNumber)
	w.addText("bank_swift", filter.BankSwift)
	w.addText("bank_iban", filter.BankIban)
	if filter.From != nil {
		w.add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		w.add("created_at <= $%d", *filter.To)
	}
	if filter.MinAmount != nil {
		n, err := decimalToNumeric(*filter.MinAmount)
		if err != nil {
			return nil, err
		}
		w.add("amount >= $%d", n)
	}
	if filter.MaxAmount != nil {
		n, err := decimalToNumeric(*filter.MaxAmount)
		if err != nil {
			return nil, err
		}
		w.add("amount <= $%d", n)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	w.args = append(w.args, limit)

	query := fmt.Sprintf(`SELECT %s FROM gateway_transactions%s ORDER BY seq DESC LIMIT $%d`,
		selectColumns, w.sql(), len(w.args))

	return s.queryRecords(ctx, "search transactions", query, w.args...)
}

// ListStalePending returns PENDING records created before the cutoff, oldest first
func (s *TransactionStore) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.TransactionRecord, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return s.queryRecords(ctx, "list stale pending transactions", `
		SELECT `+selectColumns+`
		FROM gateway_transactions
		WHERE state = 'PENDING' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2`, createdBefore, limit)
}

func (s *TransactionStore) queryRecords(ctx context.Context, op, query string, args ...interface{}) ([]*domain.TransactionRecord, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, op, err)
	}
	defer rows.Close()

	records := make([]*domain.TransactionRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, domain.WrapError(domain.ErrorCodeDatabaseError, op, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, op, err)
	}
	return records, nil
}

// scanRecord reads one row in selectColumns order
func scanRecord(row pgx.Row) (*domain.TransactionRecord, error) {
	var (
		r          domain.TransactionRecord
		kind       string
		state      string
		amount     pgtype.Numeric
		cardNumber pgtype.Text
		cardExpiry pgtype.Date
		bankSwift  pgtype.Text
		bankIban   pgtype.Text
		note       pgtype.Text
	)

	err := row.Scan(
		&r.ID,
		&r.CorrelationCode,
		&kind,
		&r.Brand,
		&amount,
		&r.Currency,
		&r.Country,
		&cardNumber,
		&cardExpiry,
		&bankSwift,
		&bankIban,
		&r.Deferred,
		&state,
		&note,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Amount, err = pgNumericToDecimal(amount)
	if err != nil {
		return nil, err
	}
	r.Kind = domain.TransactionKind(kind)
	r.State = domain.TransactionState(state)
	r.CardNumber = textValue(cardNumber)
	r.BankSwift = textValue(bankSwift)
	r.BankIban = textValue(bankIban)
	r.AuxiliaryNote = textValue(note)
	if cardExpiry.Valid {
		r.CardExpiry = cardExpiry.Time
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()

	return &r, nil
}
