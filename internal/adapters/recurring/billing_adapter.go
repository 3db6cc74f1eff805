// Package recurring registers schedules with the external recurring-billing service.
package recurring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kevin07696/transaction-gateway/internal/adapters/upstream"
	"github.com/kevin07696/transaction-gateway/internal/domain/ports"
	pkgerrors "github.com/kevin07696/transaction-gateway/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	upstreamName = "recurring-billing"
	dateLayout   = "2006-01-02"

	// registrations are always created active
	activeStatus = "ACT"
)

// registrationPayload is the recurring-billing service's wire format
type registrationPayload struct {
	Code          string          `json:"codigo"`
	Amount        decimal.Decimal `json:"monto"`
	Brand         string          `json:"marca"`
	Status        string          `json:"estado"`
	StartDate     string          `json:"fechaInicio"`
	EndDate       string          `json:"fechaFin"`
	BillingDay    int             `json:"diaMesPago"`
	BankSwift     string          `json:"swiftBanco"`
	BankIban      string          `json:"cuentaIban"`
	Currency      string          `json:"moneda"`
	Country       string          `json:"pais"`
	Card          json.Number     `json:"tarjeta"`
	CardExpiry    string          `json:"fechaCaducidad"`
	SecurityCode  int             `json:"cvv,omitempty"`
	FrequencyDays int             `json:"frecuenciaDias"`
}

// BillingAdapter implements ports.RecurringBilling over HTTP
type BillingAdapter struct {
	client *upstream.Client
}

var _ ports.RecurringBilling = (*BillingAdapter)(nil)

// NewBillingAdapter creates a recurring-billing client
func NewBillingAdapter(baseURL string, httpClient ports.HTTPClient, logger ports.Logger) *BillingAdapter {
	return &BillingAdapter{
		client: upstream.NewClient(upstreamName, baseURL, "", httpClient, logger),
	}
}

// Register creates the schedule. Any non-2xx answer is an error.
func (a *BillingAdapter) Register(ctx context.Context, reg *ports.RecurringRegistration) error {
	payload := registrationPayload{
		Code:          reg.CorrelationCode,
		Amount:        reg.Amount.Round(2),
		Brand:         reg.Brand,
		Status:        activeStatus,
		StartDate:     reg.StartDate.Format(dateLayout),
		EndDate:       reg.EndDate.Format(dateLayout),
		BillingDay:    reg.BillingDay,
		BankSwift:     reg.SettlementSwift,
		BankIban:      reg.SettlementIban,
		Currency:      reg.Currency,
		Country:       reg.Country,
		Card:          json.Number(reg.CardNumber),
		SecurityCode:  reg.SecurityCode,
		FrequencyDays: reg.FrequencyDays,
	}
	if !reg.CardExpiry.IsZero() {
		payload.CardExpiry = reg.CardExpiry.Format(dateLayout)
	}

	resp, err := a.client.Do(ctx, http.MethodPost, "/v1/transacciones-recurrentes", payload)
	if err != nil {
		return fmt.Errorf("register recurring schedule %s: %w", reg.CorrelationCode, err)
	}
	if !resp.OK() {
		return fmt.Errorf("register recurring schedule %s: %w", reg.CorrelationCode,
			pkgerrors.StatusError(upstreamName, resp.StatusCode))
	}
	return nil
}

// Ping checks that the service answers
func (a *BillingAdapter) Ping(ctx context.Context) error {
	resp, err := a.client.Do(ctx, http.MethodGet, "/v1/transacciones-recurrentes/ping", nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return pkgerrors.StatusError(upstreamName, resp.StatusCode)
	}
	return nil
}
