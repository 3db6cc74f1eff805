package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// Modality is how the cardholder chose to pay
type Modality string

const (
	ModalitySimple    Modality = "SIMPLE"
	ModalityDeferred  Modality = "DEFERRED"
	ModalityRecurring Modality = "RECURRING"
)

// ParseModality accepts both the full names and the SIM/DIF/REC codes used by terminals.
func ParseModality(s string) Modality {
	switch s {
	case "SIM", "SIMPLE", "simple":
		return ModalitySimple
	case "DIF", "DEFERRED", "deferred":
		return ModalityDeferred
	case "REC", "RECURRING", "recurring":
		return ModalityRecurring
	}
	return Modality(s)
}

// AuthorizationRequest is the enriched payload sent to the payment processor
type AuthorizationRequest struct {
	Amount           decimal.Decimal
	PosCode          string
	MerchantCode     string
	Kind             string
	Brand            string
	Modality         Modality
	Currency         string
	CardNumber       string
	CardholderName   string
	CardExpiry       string // MM/YY
	CorrelationCode  string
	SettlementSwift  string
	SettlementIban   string
	EncryptedPayload string
	GatewayTag       string
	SecurityCode     int
	Installments     int
}

// AuthorizationOutcome is the processor's answer. A non-success outcome is not an error.
type AuthorizationOutcome struct {
	StatusCode   int
	ResponseCode string
	Message      string
	Success      bool
}

// PaymentProcessor authorizes or declines a transaction synchronously
type PaymentProcessor interface {
	// Authorize returns an error only when no outcome could be obtained
	// (network failure, timeout, open circuit, unreadable response)
	Authorize(ctx context.Context, req *AuthorizationRequest) (*AuthorizationOutcome, error)
}
