package fixtures

import (
	"time"

	serviceports "github.com/kevin07696/transaction-gateway/internal/services/ports"
	"github.com/shopspring/decimal"
)

// FutureExpiry returns an MM/YY expiry two years from now.
func FutureExpiry() string {
	return time.Now().UTC().AddDate(2, 0, 0).Format("01/06")
}

// TerminalRequestBuilder provides fluent API for building terminal submissions.
type TerminalRequestBuilder struct {
	req *serviceports.TerminalRequest
}

// NewTerminalRequest creates a valid single-payment VISA submission.
func NewTerminalRequest() *TerminalRequestBuilder {
	return &TerminalRequestBuilder{
		req: &serviceports.TerminalRequest{
			Amount:         decimal.RequireFromString("100.00"),
			PosCode:        TestPosCode,
			Kind:           "PAYMENT",
			Brand:          "VISA",
			Modality:       "SIMPLE",
			Currency:       "USD",
			Country:        "US",
			CardNumber:     TestCardNumber,
			CardholderName: "JANE DOE",
			CardExpiry:     FutureExpiry(),
			Reference:      "order-1",
			SecurityCode:   123,
			Installments:   1,
		},
	}
}

func (b *TerminalRequestBuilder) WithAmount(amount string) *TerminalRequestBuilder {
	b.req.Amount = decimal.RequireFromString(amount)
	return b
}

func (b *TerminalRequestBuilder) WithKind(kind string) *TerminalRequestBuilder {
	b.req.Kind = kind
	return b
}

func (b *TerminalRequestBuilder) WithModality(modality string, installments int) *TerminalRequestBuilder {
	b.req.Modality = modality
	b.req.Installments = installments
	return b
}

func (b *TerminalRequestBuilder) WithCurrency(currency string) *TerminalRequestBuilder {
	b.req.Currency = currency
	return b
}

func (b *TerminalRequestBuilder) WithBrand(brand string) *TerminalRequestBuilder {
	b.req.Brand = brand
	return b
}

func (b *TerminalRequestBuilder) WithCardNumber(pan string) *TerminalRequestBuilder {
	b.req.CardNumber = pan
	return b
}

func (b *TerminalRequestBuilder) WithCardExpiry(expiry string) *TerminalRequestBuilder {
	b.req.CardExpiry = expiry
	return b
}

func (b *TerminalRequestBuilder) WithCorrelationCode(code string) *TerminalRequestBuilder {
	b.req.CorrelationCode = code
	return b
}

// WithRecurrence requests a recurring schedule with the given cadence.
func (b *TerminalRequestBuilder) WithRecurrence(frequencyDays *int) *TerminalRequestBuilder {
	b.req.Recurring = true
	b.req.FrequencyDays = frequencyDays
	return b
}

// Build returns the built request.
func (b *TerminalRequestBuilder) Build() *serviceports.TerminalRequest {
	return b.req
}

// NewRecurringInboundRequest creates a valid charge from the recurring-billing service.
func NewRecurringInboundRequest() *serviceports.RecurringInboundRequest {
	return &serviceports.RecurringInboundRequest{
		Amount:       decimal.RequireFromString("25.00"),
		Brand:        "VISA",
		Currency:     "USD",
		Country:      "US",
		CardNumber:   TestCardNumber,
		CardExpiry:   FutureExpiry(),
		BankSwift:    TestSwift,
		BankIban:     TestIban,
		SecurityCode: 123,
	}
}
