// Package grpc exposes the standard gRPC health service, driven by database
// reachability.
package grpc

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "delivery.Storefront"

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthReporter struct {
	server   *health.Server
	db       Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	serving  bool
	checked  bool // false until the first ping has been reported
}

func NewHealthReporter(db Pinger, interval time.Duration, logger *slog.Logger) *HealthReporter {
	return &HealthReporter{
		server:   health.NewServer(),
		db:       db,
		interval: interval,
		timeout:  2 * time.Second,
		logger:   logger,
	}
}

// Server returns the underlying health service.
func (r *HealthReporter) Server() *health.Server {
	return r.server
}

// NewServer builds a gRPC server carrying the health and reflection services.
func NewServer(reporter *HealthReporter) *grpc.Server {
	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthpb.RegisterHealthServer(srv, reporter.server)
	// Enable reflection for grpcurl/grpcui
	reflection.Register(srv)
	return srv
}

// Run checks the database once immediately and then on every tick until ctx is
// done. On exit every service is marked NOT_SERVING.
func (r *HealthReporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.check(ctx)
	for {
		select {
		case <-ctx.Done():
			r.server.Shutdown()
			r.logger.Info("health reporter stopped")
			return
		case <-ticker.C:
			r.check(ctx)
		}
	}
}

func (r *HealthReporter) check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	err := r.db.Ping(pingCtx)
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	healthy := err == nil
	if !r.checked || healthy != r.serving {
		if healthy {
			r.logger.Info("database reachable, serving")
		} else {
			r.logger.Warn("database unreachable, not serving", "error", err)
		}
		r.serving = healthy
		r.checked = true
	}

	r.server.SetServingStatus("", status)
	r.server.SetServingStatus(ServiceName, status)
}
