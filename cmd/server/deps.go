package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kevin07696/transaction-gateway/internal/adapters/memory"
	"github.com/kevin07696/transaction-gateway/internal/adapters/merchant"
	"github.com/kevin07696/transaction-gateway/internal/adapters/postgres"
	"github.com/kevin07696/transaction-gateway/internal/adapters/processor"
	"github.com/kevin07696/transaction-gateway/internal/adapters/recurring"
	"github.com/kevin07696/transaction-gateway/internal/config"
	"github.com/kevin07696/transaction-gateway/internal/domain"
	"github.com/kevin07696/transaction-gateway/internal/domain/ports"
	cronHandler "github.com/kevin07696/transaction-gateway/internal/handlers/cron"
	transactionHandler "github.com/kevin07696/transaction-gateway/internal/handlers/transaction"
	"github.com/kevin07696/transaction-gateway/internal/services/orchestration"
	"github.com/kevin07696/transaction-gateway/internal/validation"
	pkghttp "github.com/kevin07696/transaction-gateway/pkg/http"
	"github.com/kevin07696/transaction-gateway/pkg/observability"
	"github.com/kevin07696/transaction-gateway/pkg/resilience"
	"github.com/kevin07696/transaction-gateway/pkg/security"
	"github.com/kevin07696/transaction-gateway/pkg/shutdown"
)

const startupAttempts = 5

// Dependencies holds everything the listeners need
type Dependencies struct {
	transactionHandler *transactionHandler.Handler
	cronHandler        *cronHandler.ReconcileHandler
	reconciler         *orchestration.Reconciler
	health             *observability.HealthChecker
	timeouts           *resilience.TimeoutConfig
}

// storeWithHealth is the selected store plus the pinger used by health checks
type storeWithHealth struct {
	ports.TransactionStore
	pinger observability.Pinger
}

// initStore opens PostgreSQL when configured, otherwise the in-memory store
func initStore(ctx context.Context, cfg *config.Config, mgr *shutdown.Manager, logger *zap.Logger) (*storeWithHealth, error) {
	if !cfg.Database.UsesPostgres() {
		logger.Warn("No database configured - using in-memory transaction store")
		return &storeWithHealth{TransactionStore: memory.NewTransactionStore()}, nil
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.ConnectionString())
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns

	var db *postgres.DBExecutor
	err := resilience.Retry(ctx, startupAttempts, resilience.StartupBackoff(), func(ctx context.Context) error {
		pool, err := postgres.NewPool(ctx, poolCfg)
		if err != nil {
			logger.Warn("Database not reachable, retrying", zap.Error(err))
			return err
		}
		db = postgres.NewDBExecutor(pool)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", startupAttempts, err)
	}
	mgr.RegisterNoErr("database", db.GetDB().Close)

	logger.Info("Database connection established",
		zap.String("database", cfg.Database.Database),
		zap.Int32("max_conns", poolCfg.MaxConns),
	)

	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("Database migrations applied")
	}

	return &storeWithHealth{
		TransactionStore: postgres.NewTransactionStore(db),
		pinger:           db,
	}, nil
}

// timeoutsFrom overlays the configured upstream timeouts on the defaults
func timeoutsFrom(cfg *config.Config) *resilience.TimeoutConfig {
	tc := resilience.DefaultTimeoutConfig()
	tc.HTTPHandler = cfg.Server.HandlerTimeout
	tc.MerchantLookup = cfg.Merchant.Timeout
	tc.Processor = cfg.Processor.Timeout
	tc.RecurringRegistration = cfg.Recurring.Timeout
	return tc
}

func initDependencies(cfg *config.Config, store *storeWithHealth, logger *zap.Logger) *Dependencies {
	appLogger := security.NewZapLogger(logger)
	timeouts := timeoutsFrom(cfg)

	// Upstream adapters
	merchantClient := pkghttp.NewHTTPClient(pkghttp.DefaultClientConfig(), cfg.Merchant.Timeout)
	merchants := merchant.NewDirectoryAdapter(cfg.Merchant.BaseURL, merchantClient, appLogger)

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:         uint32(cfg.Processor.BreakerMaxFailures),
		Timeout:             cfg.Processor.BreakerOpenTimeout,
		MaxRequestsHalfOpen: 1,
		OnStateChange: func(from, to resilience.CircuitState) {
			observability.SetCircuitState("processor", int(to))
			logger.Warn("Processor circuit breaker changed state",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	processorClient := pkghttp.NewHTTPClient(pkghttp.ProcessorClientConfig(), cfg.Processor.Timeout)
	proc := processor.NewAdapter(cfg.Processor.BaseURL, cfg.Processor.APIKey, processorClient, breaker, appLogger)

	recurringClient := pkghttp.NewHTTPClient(pkghttp.DefaultClientConfig(), cfg.Recurring.Timeout)
	billing := recurring.NewBillingAdapter(cfg.Recurring.BaseURL, recurringClient, appLogger)

	// Health
	health := observability.NewHealthChecker()
	if store.pinger != nil {
		health.AddPinger("database", true, store.pinger)
	}
	health.AddPinger("recurring_billing", false, billing)
	health.AddCheck("processor_circuit", false, func(context.Context) error {
		if proc.CircuitState() == resilience.StateOpen {
			return errors.New("circuit open")
		}
		return nil
	})

	// Services
	kinds := make([]domain.TransactionKind, 0, len(cfg.Validation.Kinds))
	for _, k := range cfg.Validation.Kinds {
		kinds = append(kinds, domain.ParseKind(k))
	}
	rules := validation.NewRules(validation.Config{
		Currencies: cfg.Validation.Currencies,
		Kinds:      kinds,
	})

	metrics := observability.BusinessMetrics{}
	engine := orchestration.NewEngine(store, merchants, proc, billing, rules, appLogger,
		orchestration.WithMetrics(metrics),
		orchestration.WithTimeouts(timeouts),
	)
	reconciler := orchestration.NewReconciler(store, appLogger, metrics, orchestration.ReconcilerConfig{
		StaleAfter: cfg.Reconciliation.StaleAfter,
		BatchSize:  cfg.Reconciliation.BatchSize,
	})

	logger.Info("Dependencies initialized",
		zap.String("merchant_directory", cfg.Merchant.BaseURL),
		zap.String("processor", cfg.Processor.BaseURL),
		zap.String("recurring_billing", cfg.Recurring.BaseURL),
		zap.Bool("reconciliation_enabled", cfg.Reconciliation.Enabled),
	)

	return &Dependencies{
		transactionHandler: transactionHandler.NewHandler(engine, logger),
		cronHandler:        cronHandler.NewReconcileHandler(reconciler, logger, cfg.Reconciliation.CronSecret),
		reconciler:         reconciler,
		health:             health,
		timeouts:           timeouts,
	}
}
