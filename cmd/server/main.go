package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/transaction-gateway/internal/adapters/secrets"
	"github.com/kevin07696/transaction-gateway/internal/config"
	cronHandler "github.com/kevin07696/transaction-gateway/internal/handlers/cron"
	transactionHandler "github.com/kevin07696/transaction-gateway/internal/handlers/transaction"
	"github.com/kevin07696/transaction-gateway/internal/services/orchestration"
	"github.com/kevin07696/transaction-gateway/pkg/middleware"
	"github.com/kevin07696/transaction-gateway/pkg/observability"
	"github.com/kevin07696/transaction-gateway/pkg/security"
	"github.com/kevin07696/transaction-gateway/pkg/shutdown"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := security.BuildZapLogger(cfg.Server.Environment, cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting transaction gateway",
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
	)

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(logger, cfg.Server.ShutdownTimeout)

	resolveSecrets(ctx, cfg, logger)

	store, err := initStore(ctx, cfg, shutdownMgr, logger)
	if err != nil {
		logger.Fatal("Failed to initialize transaction store", zap.Error(err))
	}

	deps := initDependencies(cfg, store, logger)

	// Rate limiter
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		shutdownMgr.RegisterNoErr("rate-limiter", rateLimiter.Shutdown)
	}

	// Reconciler
	if cfg.Reconciliation.Enabled {
		worker := shutdown.NewPeriodicWorker("stale-pending-reconciler", cfg.Reconciliation.Interval, logger)
		worker.Start(ctx, deps.reconciler.Sweep)
		shutdownMgr.Register("stale-pending-reconciler", worker.Shutdown)
	}

	// gRPC health
	grpcServer, healthServer := observability.NewGRPCHealthServer()
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HealthGRPCPort))
	if err != nil {
		logger.Fatal("Failed to listen for gRPC health", zap.Error(err))
	}
	go func() {
		logger.Info("gRPC health server listening", zap.String("address", grpcListener.Addr().String()))
		if err := grpcServer.Serve(grpcListener); err != nil {
			logger.Error("gRPC health server stopped", zap.Error(err))
		}
	}()
	syncCtx, stopSync := context.WithCancel(ctx)
	go observability.SyncHealth(syncCtx, deps.health, healthServer, 15*time.Second, logger)
	shutdownMgr.RegisterNoErr("grpc-health-sync", stopSync)
	shutdownMgr.RegisterNoErr("grpc-health", grpcServer.GracefulStop)

	// Metrics and HTTP health
	metricsServer := observability.StartMetricsServer(cfg.Server.MetricsPort, deps.health, logger)
	shutdownMgr.Register("metrics-server", func(ctx context.Context) error {
		return observability.ShutdownMetricsServer(ctx, metricsServer)
	})

	// Public API
	mux := http.NewServeMux()
	deps.transactionHandler.RegisterRoutes(mux)
	deps.cronHandler.RegisterRoutes(mux)
	mux.Handle("GET /health", deps.health.HealthHandler())

	inFlight := shutdown.NewInFlightTracker("http-api", logger)
	chain := []middleware.Middleware{
		middleware.Recovery(logger),
		middleware.Logging(logger),
		inFlight.Middleware,
	}
	if rateLimiter != nil {
		chain = append(chain, rateLimiter.Middleware)
	}
	chain = append(chain, middleware.Timeout(deps.timeouts))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           middleware.Chain(mux, chain...),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("HTTP API listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()
	shutdownMgr.RegisterHTTPServer("http-api", httpServer)
	shutdownMgr.Register("http-in-flight", inFlight.Shutdown)

	if err := shutdownMgr.WaitForShutdown(ctx); err != nil {
		logger.Error("Shutdown finished with errors", zap.Error(err))
		os.Exit(1)
	}
}

// resolveSecrets fills credentials that were not configured directly
func resolveSecrets(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	mgr, err := secrets.New(ctx, cfg.Secrets, logger)
	if err != nil {
		logger.Fatal("Failed to initialize secret manager",
			zap.String("provider", cfg.Secrets.Provider),
			zap.Error(err),
		)
	}

	if cfg.Database.UsesPostgres() && cfg.Database.URL == "" {
		cfg.Database.Password = secrets.Resolve(ctx, mgr, cfg.Secrets.DBPasswordPath, cfg.Database.Password, logger)
	}
	cfg.Processor.APIKey = secrets.Resolve(ctx, mgr, cfg.Secrets.ProcessorKeyPath, cfg.Processor.APIKey, logger)
	cfg.Reconciliation.CronSecret = secrets.Resolve(ctx, mgr, cfg.Secrets.CronSecretPath, cfg.Reconciliation.CronSecret, logger)

	if cfg.Reconciliation.CronSecret == "" {
		logger.Warn("Cron secret not configured - /cron/reconcile-pending will reject every request")
	}
}
