package ports

import (
	"context"

	"github.com/kevin07696/transaction-gateway/internal/domain"
	"github.com/shopspring/decimal"
)

// TerminalRequest is a transaction submitted by a point-of-sale terminal
type TerminalRequest struct {
	Amount          decimal.Decimal
	PosCode         string
	Kind            string // PAYMENT, WITHDRAWAL, TRANSFER, REFUND or a legacy code
	Brand           string
	Modality        string // SIMPLE, DEFERRED, RECURRING or SIM/DIF/REC
	Currency        string
	Country         string
	CardNumber      string
	CardholderName  string
	CardExpiry      string // MM/YY
	CorrelationCode string // optional, generated when empty
	Reference       string
	FrequencyDays   *int // recurring cadence, nil when not supplied
	SecurityCode    int
	Installments    int
	Recurring       bool
}

// RecurringInboundRequest is a charge triggered by the recurring-billing service.
// The settlement identifiers travel with the request so no merchant lookup is made.
type RecurringInboundRequest struct {
	Amount       decimal.Decimal
	Brand        string
	Currency     string
	Country      string
	CardNumber   string
	CardExpiry   string // MM/YY
	BankSwift    string
	BankIban     string
	SecurityCode int
}

// TransactionService defines the port for transaction orchestration
type TransactionService interface {
	// SubmitFromTerminal enriches, validates, persists and dispatches a terminal transaction.
	// Once the record is persisted it is returned even when err is non-nil.
	SubmitFromTerminal(ctx context.Context, req *TerminalRequest) (*domain.TransactionRecord, error)

	// SubmitRecurringInbound processes a charge from the recurring-billing service
	SubmitRecurringInbound(ctx context.Context, req *RecurringInboundRequest) (*domain.TransactionRecord, error)

	// SetState is the administrative state override
	SetState(ctx context.Context, id string, state domain.TransactionState) (*domain.TransactionRecord, error)

	Get(ctx context.Context, id string) (*domain.TransactionRecord, error)
	GetByCorrelationCode(ctx context.Context, code string) (*domain.TransactionRecord, error)
	Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.TransactionRecord, error)
}

// ReconcileResult summarizes one stale-PENDING sweep
type ReconcileResult struct {
	Scanned    int `json:"scanned"`
	Reconciled int `json:"reconciled"`
	Skipped    int `json:"skipped"`
}

// ReconciliationService marks abandoned PENDING records as ERROR
type ReconciliationService interface {
	ReconcileStalePending(ctx context.Context) (*ReconcileResult, error)
}
