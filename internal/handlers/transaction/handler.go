// Package transaction exposes the orchestration engine over HTTP/JSON.
package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kevin07696/transaction-gateway/internal/domain"
	"github.com/kevin07696/transaction-gateway/internal/services/ports"
	"github.com/kevin07696/transaction-gateway/pkg/encoding"
	"github.com/kevin07696/transaction-gateway/pkg/middleware"
	"github.com/kevin07696/transaction-gateway/pkg/observability"
	"github.com/kevin07696/transaction-gateway/pkg/timeutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

// Handler serves the /v1/transactions API
type Handler struct {
	service ports.TransactionService
	logger  *zap.Logger
}

// NewHandler creates a new transaction handler
func NewHandler(service ports.TransactionService, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts every route on mux, each instrumented under its pattern
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	routes := []struct {
		pattern string
		handler http.Handler
	}{
		{"POST /v1/transactions", http.HandlerFunc(h.Submit)},
		{"POST /v1/transactions/recurring", http.HandlerFunc(h.SubmitRecurring)},
		{"GET /v1/transactions", middleware.Gzip(http.HandlerFunc(h.Search))},
		{"GET /v1/transactions/{id}", http.HandlerFunc(h.Get)},
		{"GET /v1/transactions/correlation/{code}", http.HandlerFunc(h.GetByCorrelationCode)},
		{"PATCH /v1/transactions/{id}/state", http.HandlerFunc(h.SetState)},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, observability.InstrumentRoute(rt.pattern, rt.handler))
	}
}

// Submit handles POST /v1/transactions
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.logger.Info("Terminal transaction received",
		zap.String("pos_code", req.PosCode),
		zap.String("kind", req.Kind),
		zap.String("amount", req.Amount.String()),
		zap.String("card", domain.MaskCardNumber(req.CardNumber)),
	)

	record, err := h.service.SubmitFromTerminal(r.Context(), req.toService())
	if err != nil {
		h.respondServiceError(w, err, record)
		return
	}
	h.respondJSON(w, http.StatusCreated, toResponse(record))
}

// SubmitRecurring handles POST /v1/transactions/recurring
func (h *Handler) SubmitRecurring(w http.ResponseWriter, r *http.Request) {
	var req RecurringRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.service.SubmitRecurringInbound(r.Context(), req.toService())
	if err != nil {
		h.respondServiceError(w, err, record)
		return
	}
	h.respondJSON(w, http.StatusCreated, toResponse(record))
}

// Get handles GET /v1/transactions/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, err, nil)
		return
	}
	h.respondJSON(w, http.StatusOK, toResponse(record))
}

// GetByCorrelationCode handles GET /v1/transactions/correlation/{code}
func (h *Handler) GetByCorrelationCode(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.GetByCorrelationCode(r.Context(), r.PathValue("code"))
	if err != nil {
		h.respondServiceError(w, err, nil)
		return
	}
	h.respondJSON(w, http.StatusOK, toResponse(record))
}

// SetState handles PATCH /v1/transactions/{id}/state
func (h *Handler) SetState(w http.ResponseWriter, r *http.Request) {
	var req SetStateRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.State == "" {
		h.respondServiceError(w, domain.NewValidationError("state", "state is required"), nil)
		return
	}

	record, err := h.service.SetState(r.Context(), r.PathValue("id"), domain.TransactionState(req.State))
	if err != nil {
		h.respondServiceError(w, err, nil)
		return
	}
	h.respondJSON(w, http.StatusOK, toResponse(record))
}

// Search handles GET /v1/transactions
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.respondServiceError(w, err, nil)
		return
	}

	records, err := h.service.Search(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, err, nil)
		return
	}

	resp := SearchResponse{
		Transactions: make([]*TransactionResponse, 0, len(records)),
		Count:        len(records),
	}
	for _, rec := range records {
		resp.Transactions = append(resp.Transactions, toResponse(rec))
	}
	h.respondJSON(w, http.StatusOK, resp)
}

func parseFilter(r *http.Request) (domain.SearchFilter, error) {
	q := r.URL.Query()
	filter := domain.SearchFilter{
		State:      domain.TransactionState(q.Get("state")),
		Kind:       domain.TransactionKind(q.Get("kind")),
		Brand:      q.Get("brand"),
		Currency:   q.Get("currency"),
		Country:    q.Get("country"),
		CardNumber: q.Get("card_number"),
		BankSwift:  q.Get("bank_swift"),
		BankIban:   q.Get("bank_iban"),
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filter, domain.NewValidationError("limit", "limit must be a non-negative integer")
		}
		filter.Limit = limit
	}

	for _, bound := range []struct {
		param string
		dst   **decimal.Decimal
	}{
		{"min_amount", &filter.MinAmount},
		{"max_amount", &filter.MaxAmount},
	} {
		if v := q.Get(bound.param); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return filter, domain.NewValidationError(bound.param, fmt.Sprintf("%s must be a decimal amount", bound.param))
			}
			*bound.dst = &d
		}
	}

	if v := q.Get("from"); v != "" {
		t, err := timeutil.ParseBound(v, false)
		if err != nil {
			return filter, domain.NewValidationError("from", err.Error())
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := timeutil.ParseBound(v, true)
		if err != nil {
			return filter, domain.NewValidationError("to", err.Error())
		}
		filter.To = &t
	}

	return filter, nil
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("Failed to parse request body", zap.Error(err))
		h.respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorBody{
			Code:    string(domain.ErrorCodeValidationFailed),
			Message: "malformed request body",
		}})
		return false
	}
	return true
}

// statusFor maps a service error onto an HTTP status
func statusFor(err error) int {
	switch {
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case domain.IsNotFoundError(err):
		return http.StatusNotFound
	case domain.IsDomainError(err, domain.ErrorCodeProcessorRejected):
		return http.StatusUnprocessableEntity
	case domain.IsDomainError(err, domain.ErrorCodeTxnInvalidState):
		return http.StatusConflict
	case domain.IsUpstreamError(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, record *domain.TransactionRecord) {
	status := statusFor(err)
	resp := ErrorResponse{Transaction: toResponse(record)}

	var de *domain.DomainError
	switch {
	case status == http.StatusInternalServerError || status == http.StatusGatewayTimeout:
		// internal details stay in the log
		h.logger.Error("Request failed", zap.Error(err))
		resp.Error = ErrorBody{Code: "INTERNAL_ERROR", Message: "internal server error"}
		if errors.As(err, &de) {
			resp.Error.Code = string(de.Code)
		}
	case errors.As(err, &de):
		resp.Error = ErrorBody{
			Code:    string(de.Code),
			Message: de.Message,
			Field:   de.Field,
		}
		if len(de.Details) > 0 {
			resp.Error.Details = de.Details
		}
	default:
		resp.Error = ErrorBody{Code: "REQUEST_FAILED", Message: err.Error()}
	}

	h.respondJSON(w, status, resp)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := encoding.EncodeJSON(v)
	if err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.logger.Debug("Failed to write response", zap.Error(err))
	}
}
