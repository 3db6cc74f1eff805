package orchestration

import (
	"context"
	"time"

	"github.com/kevin07696/transaction-gateway/internal/domain"
	"github.com/kevin07696/transaction-gateway/internal/domain/ports"
	serviceports "github.com/kevin07696/transaction-gateway/internal/services/ports"
	"github.com/kevin07696/transaction-gateway/pkg/timeutil"
)

// ReconcilerConfig controls the stale-PENDING sweep
type ReconcilerConfig struct {
	StaleAfter time.Duration
	BatchSize  int
}

// DefaultReconcilerConfig returns the sweep settings used when none are configured
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		StaleAfter: 15 * time.Minute,
		BatchSize:  100,
	}
}

// Reconciler moves PENDING records whose submission never finalized to ERROR.
// Each move is a compare-and-set, so a record finalized concurrently is left alone.
type Reconciler struct {
	store   ports.TransactionStore
	logger  ports.Logger
	metrics ports.MetricsRecorder
	cfg     ReconcilerConfig
	now     func() time.Time
}

// NewReconciler creates a reconciler. A nil metrics recorder disables metrics.
func NewReconciler(store ports.TransactionStore, logger ports.Logger, metrics ports.MetricsRecorder, cfg ReconcilerConfig) *Reconciler {
	def := DefaultReconcilerConfig()
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Reconciler{
		store:   store,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
		now:     timeutil.Now,
	}
}

// ReconcileStalePending runs one sweep over at most BatchSize stale records
func (r *Reconciler) ReconcileStalePending(ctx context.Context) (*serviceports.ReconcileResult, error) {
	cutoff := r.now().Add(-r.cfg.StaleAfter)
	stale, err := r.store.ListStalePending(ctx, cutoff, r.cfg.BatchSize)
	if err != nil {
		r.logger.Error("failed to list stale pending transactions", ports.Err(err))
		return nil, err
	}

	result := &serviceports.ReconcileResult{Scanned: len(stale)}
	for _, rec := range stale {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		_, err := r.store.TransitionState(ctx, rec.ID, domain.StatePending, domain.StateError)
		switch {
		case err == nil:
			result.Reconciled++
			r.logger.Warn("stale pending transaction marked as error",
				ports.String("transaction_id", rec.ID),
				ports.String("created_at", rec.CreatedAt.Format(time.RFC3339)))
		case domain.IsDomainError(err, domain.ErrorCodeTxnInvalidState),
			domain.IsNotFoundError(err):
			result.Skipped++
		default:
			r.logger.Error("failed to reconcile transaction",
				ports.String("transaction_id", rec.ID),
				ports.Err(err))
			result.Skipped++
		}
	}

	r.metrics.RecordReconciled(result.Reconciled)
	if result.Scanned > 0 {
		r.logger.Info("reconciliation sweep completed",
			ports.Int("scanned", result.Scanned),
			ports.Int("reconciled", result.Reconciled),
			ports.Int("skipped", result.Skipped))
	}
	return result, nil
}

// Sweep runs one reconciliation pass and logs a failure instead of returning it.
// It has the shape expected by a periodic worker.
func (r *Reconciler) Sweep(ctx context.Context) {
	if _, err := r.ReconcileStalePending(ctx); err != nil && ctx.Err() == nil {
		r.logger.Warn("reconciliation sweep failed", ports.Err(err))
	}
}

var _ serviceports.ReconciliationService = (*Reconciler)(nil)
