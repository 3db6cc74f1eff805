// Package processor forwards authorizations to the external payment processor.
package processor

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kevin07696/transaction-gateway/internal/adapters/upstream"
	"github.com/kevin07696/transaction-gateway/internal/domain/ports"
	pkgerrors "github.com/kevin07696/transaction-gateway/pkg/errors"
	"github.com/kevin07696/transaction-gateway/pkg/resilience"
	"github.com/shopspring/decimal"
)

const upstreamName = "payment-processor"

// errServerStatus marks 5xx answers so the breaker counts them; they are still outcomes.
var errServerStatus = errors.New("processor answered with a server error")

// authorizationPayload is the processor's wire format
type authorizationPayload struct {
	PosCode          string          `json:"codigoPOS,omitempty"`
	MerchantCode     string          `json:"codigoComercio,omitempty"`
	Kind             string          `json:"tipo"`
	Brand            string          `json:"marca"`
	Modality         string          `json:"modalidad"`
	Amount           decimal.Decimal `json:"monto"`
	Currency         string          `json:"moneda"`
	CardNumber       string          `json:"numeroTarjeta"`
	CardholderName   string          `json:"nombreTitular"`
	SecurityCode     int             `json:"codigoSeguridad,omitempty"`
	CardExpiry       string          `json:"fechaExpiracion"`
	CorrelationCode  string          `json:"codigoUnicoTransaccion"`
	SettlementSwift  string          `json:"swiftBanco,omitempty"`
	SettlementIban   string          `json:"cuentaIban,omitempty"`
	Installments     int             `json:"plazo,omitempty"`
	EncryptedPayload string          `json:"transaccionEncriptada"`
	GatewayTag       string          `json:"gtwId"`
}

// outcomeBody is what the processor returns in both the approved and declined cases
type outcomeBody struct {
	Status  string `json:"estado"`
	Code    string `json:"codigo"`
	Message string `json:"mensaje"`
}

// Adapter implements ports.PaymentProcessor behind a circuit breaker
type Adapter struct {
	client  *upstream.Client
	breaker *resilience.CircuitBreaker
	logger  ports.Logger
}

var _ ports.PaymentProcessor = (*Adapter)(nil)

// NewAdapter creates a processor client. A nil breaker disables circuit breaking.
func NewAdapter(baseURL, apiKey string, httpClient ports.HTTPClient, breaker *resilience.CircuitBreaker, logger ports.Logger) *Adapter {
	return &Adapter{
		client:  upstream.NewClient(upstreamName, baseURL, apiKey, httpClient, logger),
		breaker: breaker,
		logger:  logger,
	}
}

// Authorize sends the payment for approval.
// 2xx is an approval and any other status a decline; only a missing answer is an error.
func (a *Adapter) Authorize(ctx context.Context, req *ports.AuthorizationRequest) (*ports.AuthorizationOutcome, error) {
	payload := authorizationPayload{
		PosCode:          req.PosCode,
		MerchantCode:     req.MerchantCode,
		Kind:             req.Kind,
		Brand:            req.Brand,
		Modality:         string(req.Modality),
		Amount:           req.Amount.Round(2),
		Currency:         req.Currency,
		CardNumber:       req.CardNumber,
		CardholderName:   req.CardholderName,
		SecurityCode:     req.SecurityCode,
		CardExpiry:       req.CardExpiry,
		CorrelationCode:  req.CorrelationCode,
		SettlementSwift:  req.SettlementSwift,
		SettlementIban:   req.SettlementIban,
		Installments:     req.Installments,
		EncryptedPayload: req.EncryptedPayload,
		GatewayTag:       req.GatewayTag,
	}

	var resp *upstream.Response
	call := func() error {
		var err error
		resp, err = a.client.Do(ctx, http.MethodPost, "/procesar-pago", payload)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return errServerStatus
		}
		return nil
	}

	var err error
	if a.breaker != nil {
		err = a.breaker.Call(call, nil)
	} else {
		err = call()
	}

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return nil, pkgerrors.NewGatewayError(upstreamName, "CIRCUIT_OPEN", "processor circuit is open",
			pkgerrors.CategoryCircuitOpen, true).WithCause(err)
	case err != nil && !errors.Is(err, errServerStatus):
		return nil, fmt.Errorf("authorize %s: %w", req.CorrelationCode, err)
	}

	outcome := &ports.AuthorizationOutcome{
		StatusCode: resp.StatusCode,
		Success:    resp.OK(),
	}

	var body outcomeBody
	if decodeErr := resp.Decode(&body); decodeErr == nil {
		outcome.ResponseCode = body.Code
		outcome.Message = body.Message
	}

	if a.logger != nil {
		a.logger.Info("processor outcome",
			ports.String("correlation_code", req.CorrelationCode),
			ports.Int("status", resp.StatusCode),
			ports.Bool("approved", outcome.Success),
			ports.String("response_code", outcome.ResponseCode),
		)
	}

	return outcome, nil
}

// CircuitState reports the breaker state for health checks
func (a *Adapter) CircuitState() resilience.CircuitState {
	if a.breaker == nil {
		return resilience.StateClosed
	}
	return a.breaker.State()
}
