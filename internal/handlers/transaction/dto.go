package transaction

import (
	"time"

	"github.com/kevin07696/transaction-gateway/internal/domain"
	serviceports "github.com/kevin07696/transaction-gateway/internal/services/ports"
	"github.com/shopspring/decimal"
)

// SubmitRequest is the body of POST /v1/transactions
type SubmitRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	PosCode         string          `json:"pos_code"`
	Kind            string          `json:"kind"`
	Brand           string          `json:"brand"`
	Modality        string          `json:"modality"`
	Currency        string          `json:"currency"`
	Country         string          `json:"country"`
	CardNumber      string          `json:"card_number"`
	CardholderName  string          `json:"cardholder_name"`
	CardExpiry      string          `json:"card_expiry"`
	CorrelationCode string          `json:"correlation_code,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	FrequencyDays   *int            `json:"frequency_days,omitempty"`
	SecurityCode    int             `json:"security_code"`
	Installments    int             `json:"installments"`
	Recurring       bool            `json:"recurring"`
}

func (r *SubmitRequest) toService() *serviceports.TerminalRequest {
	return &serviceports.TerminalRequest{
		Amount:          r.Amount,
		PosCode:         r.PosCode,
		Kind:            r.Kind,
		Brand:           r.Brand,
		Modality:        r.Modality,
		Currency:        r.Currency,
		Country:         r.Country,
		CardNumber:      r.CardNumber,
		CardholderName:  r.CardholderName,
		CardExpiry:      r.CardExpiry,
		CorrelationCode: r.CorrelationCode,
		Reference:       r.Reference,
		FrequencyDays:   r.FrequencyDays,
		SecurityCode:    r.SecurityCode,
		Installments:    r.Installments,
		Recurring:       r.Recurring,
	}
}

// RecurringRequest is the body of POST /v1/transactions/recurring
type RecurringRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	Brand        string          `json:"brand"`
	Currency     string          `json:"currency"`
	Country      string          `json:"country"`
	CardNumber   string          `json:"card_number"`
	CardExpiry   string          `json:"card_expiry"`
	BankSwift    string          `json:"bank_swift"`
	BankIban     string          `json:"bank_iban"`
	SecurityCode int             `json:"security_code"`
}

func (r *RecurringRequest) toService() *serviceports.RecurringInboundRequest {
	return &serviceports.RecurringInboundRequest{
		Amount:       r.Amount,
		Brand:        r.Brand,
		Currency:     r.Currency,
		Country:      r.Country,
		CardNumber:   r.CardNumber,
		CardExpiry:   r.CardExpiry,
		BankSwift:    r.BankSwift,
		BankIban:     r.BankIban,
		SecurityCode: r.SecurityCode,
	}
}

// SetStateRequest is the body of PATCH /v1/transactions/{id}/state
type SetStateRequest struct {
	State string `json:"state"`
}

// TransactionResponse is the wire form of a record. The card number is masked.
type TransactionResponse struct {
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Amount          decimal.Decimal `json:"amount"`
	ID              string          `json:"id"`
	CorrelationCode string          `json:"correlation_code"`
	Kind            string          `json:"kind"`
	Brand           string          `json:"brand"`
	Currency        string          `json:"currency"`
	Country         string          `json:"country"`
	CardNumber      string          `json:"card_number,omitempty"`
	CardExpiry      string          `json:"card_expiry,omitempty"`
	BankSwift       string          `json:"bank_swift,omitempty"`
	BankIban        string          `json:"bank_iban,omitempty"`
	AuxiliaryNote   string          `json:"auxiliary_note,omitempty"`
	State           string          `json:"state"`
	Deferred        bool            `json:"deferred"`
}

func toResponse(t *domain.TransactionRecord) *TransactionResponse {
	if t == nil {
		return nil
	}
	return &TransactionResponse{
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		Amount:          t.Amount,
		ID:              t.ID,
		CorrelationCode: t.CorrelationCode,
		Kind:            string(t.Kind),
		Brand:           t.Brand,
		Currency:        t.Currency,
		Country:         t.Country,
		CardNumber:      t.MaskedCard(),
		CardExpiry:      domain.FormatCardExpiry(t.CardExpiry),
		BankSwift:       t.BankSwift,
		BankIban:        t.BankIban,
		AuxiliaryNote:   t.AuxiliaryNote,
		State:           string(t.State),
		Deferred:        t.Deferred,
	}
}

// SearchResponse wraps a search result
type SearchResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Count        int                    `json:"count"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
}

// ErrorResponse is returned for every non-2xx status. Transaction is set when
// the record was persisted before the failure (processor rejection or error).
type ErrorResponse struct {
	Error       ErrorBody            `json:"error"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
}
