// Package cron serves scheduler-triggered maintenance endpoints.
package cron

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kevin07696/transaction-gateway/internal/services/ports"
	"github.com/kevin07696/transaction-gateway/pkg/timeutil"
	"go.uber.org/zap"
)

// ReconcileHandler handles cron job endpoints for stale-PENDING reconciliation
type ReconcileHandler struct {
	reconciler ports.ReconciliationService
	logger     *zap.Logger
	cronSecret string
}

// NewReconcileHandler creates a new reconciliation cron handler
func NewReconcileHandler(reconciler ports.ReconciliationService, logger *zap.Logger, cronSecret string) *ReconcileHandler {
	return &ReconcileHandler{
		reconciler: reconciler,
		logger:     logger,
		cronSecret: cronSecret,
	}
}

// ReconcileResponse represents the response from a reconciliation sweep
type ReconcileResponse struct {
	*ports.ReconcileResult
	Success     bool   `json:"success"`
	ProcessedAt string `json:"processed_at"`
}

// RegisterRoutes mounts the cron endpoints on mux
func (h *ReconcileHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /cron/reconcile-pending", h.ReconcilePending)
	mux.HandleFunc("GET /cron/health", h.HealthCheck)
}

// ReconcilePending handles POST /cron/reconcile-pending
func (h *ReconcileHandler) ReconcilePending(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Reconciliation cron job triggered",
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("user_agent", r.UserAgent()),
	)

	if !h.authenticateRequest(r) {
		h.logger.Warn("Unauthorized cron request", zap.String("remote_addr", r.RemoteAddr))
		h.respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result, err := h.reconciler.ReconcileStalePending(r.Context())
	if err != nil {
		h.logger.Error("Reconciliation failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "reconciliation failed")
		return
	}

	h.logger.Info("Reconciliation completed",
		zap.Int("scanned", result.Scanned),
		zap.Int("reconciled", result.Reconciled),
		zap.Int("skipped", result.Skipped),
	)

	h.respondJSON(w, http.StatusOK, ReconcileResponse{
		ReconcileResult: result,
		Success:         true,
		ProcessedAt:     timeutil.Now().Format(time.RFC3339),
	})
}

// authenticateRequest accepts the shared secret in X-Cron-Secret or as a bearer token.
// An empty configured secret rejects every request.
func (h *ReconcileHandler) authenticateRequest(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}

	provided := r.Header.Get("X-Cron-Secret")
	if provided == "" {
		provided = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.cronSecret)) == 1
}

// HealthCheck handles GET /cron/health for scheduler monitoring
func (h *ReconcileHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   timeutil.Now().Format(time.RFC3339),
	})
}

func (h *ReconcileHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

func (h *ReconcileHandler) respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
