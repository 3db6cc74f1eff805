package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/transaction-gateway/internal/domain"
	"github.com/shopspring/decimal"
)

// TestCardNumber is a 16-digit test PAN
const TestCardNumber = "4111111111111111"

// RecordBuilder provides fluent API for building test transaction records.
type RecordBuilder struct {
	record *domain.TransactionRecord
}

// NewRecord creates a PENDING USD payment with sensible defaults.
func NewRecord() *RecordBuilder {
	now := time.Now().UTC()
	return &RecordBuilder{
		record: &domain.TransactionRecord{
			ID:              uuid.NewString()[:8] + "00",
			CorrelationCode: uuid.NewString(),
			Amount:          decimal.RequireFromString("100.00"),
			Kind:            domain.KindPayment,
			Brand:           "VISA",
			Currency:        "USD",
			Country:         "US",
			CardNumber:      TestCardNumber,
			CardExpiry:      time.Date(now.Year()+2, time.December, 31, 0, 0, 0, 0, time.UTC),
			BankSwift:       TestSwift,
			BankIban:        TestIban,
			State:           domain.StatePending,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
	}
}

func (b *RecordBuilder) WithID(id string) *RecordBuilder {
	b.record.ID = id
	return b
}

func (b *RecordBuilder) WithCorrelationCode(code string) *RecordBuilder {
	b.record.CorrelationCode = code
	return b
}

func (b *RecordBuilder) WithAmount(amount string) *RecordBuilder {
	b.record.Amount = decimal.RequireFromString(amount)
	return b
}

func (b *RecordBuilder) WithKind(kind domain.TransactionKind) *RecordBuilder {
	b.record.Kind = kind
	return b
}

func (b *RecordBuilder) WithBrand(brand string) *RecordBuilder {
	b.record.Brand = brand
	return b
}

func (b *RecordBuilder) WithCurrency(currency string) *RecordBuilder {
	b.record.Currency = currency
	return b
}

func (b *RecordBuilder) WithState(state domain.TransactionState) *RecordBuilder {
	b.record.State = state
	return b
}

func (b *RecordBuilder) WithCreatedAt(t time.Time) *RecordBuilder {
	b.record.CreatedAt = t
	b.record.UpdatedAt = t
	return b
}

func (b *RecordBuilder) WithCardNumber(pan string) *RecordBuilder {
	b.record.CardNumber = pan
	return b
}

// Build returns the built record.
func (b *RecordBuilder) Build() *domain.TransactionRecord {
	return b.record
}
