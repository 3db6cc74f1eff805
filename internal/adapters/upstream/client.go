// Package upstream is the JSON-over-HTTP plumbing shared by the merchant,
// processor and recurring-billing adapters.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kevin07696/transaction-gateway/internal/domain/ports"
	"github.com/kevin07696/transaction-gateway/pkg/encoding"
	pkgerrors "github.com/kevin07696/transaction-gateway/pkg/errors"
)

const maxResponseBody = 1 << 20

// Response is a raw upstream answer
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v
func (r *Response) Decode(v interface{}) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// Client sends JSON requests to one upstream service
type Client struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient ports.HTTPClient
	logger     ports.Logger
}

// NewClient creates a client for the service called name at baseURL.
// apiKey, when set, is sent as a bearer token.
func NewClient(name, baseURL, apiKey string, httpClient ports.HTTPClient, logger ports.Logger) *Client {
	return &Client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Name returns the upstream name used in errors and metrics
func (c *Client) Name() string {
	return c.name
}

// Do sends the request and returns the response whatever its status.
// Only failures to obtain a response are errors.
func (c *Client) Do(ctx context.Context, method, path string, request interface{}) (*Response, error) {
	var body io.Reader
	if request != nil {
		payload, err := encoding.EncodeJSON(request)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("upstream request failed",
				ports.String("upstream", c.name),
				ports.String("method", method),
				ports.String("path", path),
				ports.Duration("elapsed", time.Since(start)),
				ports.Err(err),
			)
		}
		return nil, pkgerrors.NetworkError(c.name, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, pkgerrors.NetworkError(c.name, fmt.Errorf("read response body: %w", err)).
			WithStatus(httpResp.StatusCode)
	}

	if c.logger != nil {
		c.logger.Debug("upstream request completed",
			ports.String("upstream", c.name),
			ports.String("method", method),
			ports.String("path", path),
			ports.Int("status", httpResp.StatusCode),
			ports.Duration("elapsed", time.Since(start)),
		)
	}

	return &Response{StatusCode: httpResp.StatusCode, Body: respBody}, nil
}
