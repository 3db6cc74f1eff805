// Package merchant resolves POS terminals to merchant settlement data.
package merchant

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kevin07696/transaction-gateway/internal/adapters/upstream"
	"github.com/kevin07696/transaction-gateway/internal/domain/ports"
	pkgerrors "github.com/kevin07696/transaction-gateway/pkg/errors"
)

const upstreamName = "merchant-directory"

// merchantResponse is the directory's wire format
type merchantResponse struct {
	MerchantCode string `json:"codigo_comercio"`
	MerchantName string `json:"nombre_comercio"`
	BankSwift    string `json:"swift_banco"`
	BankIban     string `json:"cuenta_iban"`
	Status       string `json:"estado"`
}

// DirectoryAdapter implements ports.MerchantDirectory over HTTP
type DirectoryAdapter struct {
	client *upstream.Client
	logger ports.Logger
}

var _ ports.MerchantDirectory = (*DirectoryAdapter)(nil)

// NewDirectoryAdapter creates a merchant directory client
func NewDirectoryAdapter(baseURL string, httpClient ports.HTTPClient, logger ports.Logger) *DirectoryAdapter {
	return &DirectoryAdapter{
		client: upstream.NewClient(upstreamName, baseURL, "", httpClient, logger),
		logger: logger,
	}
}

// Lookup fetches the merchant registered for a terminal
func (a *DirectoryAdapter) Lookup(ctx context.Context, posCode string) (*ports.MerchantBanking, error) {
	if posCode == "" {
		return nil, fmt.Errorf("merchant lookup: pos code is required")
	}

	resp, err := a.client.Do(ctx, http.MethodGet, "/v1/comercios/pos/"+url.PathEscape(posCode), nil)
	if err != nil {
		return nil, fmt.Errorf("merchant lookup for %s: %w", posCode, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("merchant lookup for %s: %w", posCode, pkgerrors.StatusError(upstreamName, resp.StatusCode))
	}

	var body merchantResponse
	if err := resp.Decode(&body); err != nil {
		return nil, fmt.Errorf("merchant lookup for %s: %w", posCode,
			pkgerrors.NewGatewayError(upstreamName, "DECODE_ERROR", "malformed merchant response",
				pkgerrors.CategoryDecodeError, false).WithCause(err))
	}

	return &ports.MerchantBanking{
		MerchantCode:    body.MerchantCode,
		MerchantName:    body.MerchantName,
		SettlementSwift: body.BankSwift,
		SettlementIban:  body.BankIban,
		MerchantStatus:  body.Status,
	}, nil
}
