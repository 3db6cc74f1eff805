package observability

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the gRPC health service name reported alongside the overall ("") status
const ServiceName = "transaction-gateway"

// NewGRPCHealthServer builds a gRPC server exposing the standard health
// service and reflection. The returned health.Server is driven by SyncHealth.
func NewGRPCHealthServer() (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(grpc.UnaryInterceptor(UnaryServerInterceptor()))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	return srv, hs
}

// ServingStatus maps a checker status onto the gRPC health enum
func ServingStatus(status string) healthpb.HealthCheckResponse_ServingStatus {
	if status == StatusUnhealthy {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

// SyncHealth runs the checker every interval and publishes the result to hs
// until ctx is cancelled. On exit every service is marked NOT_SERVING.
func SyncHealth(ctx context.Context, checker *HealthChecker, hs *health.Server, interval time.Duration, logger *zap.Logger) {
	publish := func() {
		st := checker.Check(ctx)
		serving := ServingStatus(st.Status)
		hs.SetServingStatus("", serving)
		hs.SetServingStatus(ServiceName, serving)
		if st.Status != StatusHealthy {
			logger.Warn("Health check not healthy", zap.String("status", st.Status), zap.Any("checks", st.Checks))
		}
	}

	publish()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
			publish()
		}
	}
}
