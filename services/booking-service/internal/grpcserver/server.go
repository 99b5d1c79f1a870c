// Package grpcserver serves the standard gRPC health protocol for the booking
// service, driven by the same dependency probes as /readyz.
package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/md-rashed-zaman/turnos/libs/runtime"
)

// ServiceName is the health entry for the booking API. The empty name reports
// the process as a whole.
const ServiceName = "turnos.booking.v1"

type Health struct {
	srv    *health.Server
	checks []runtime.ReadyCheck
	logger *slog.Logger
}

// Register installs the health service on s. Everything starts NOT_SERVING
// until the first Probe.
func Register(s *grpc.Server, logger *slog.Logger, checks ...runtime.ReadyCheck) *Health {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Health{srv: health.NewServer(), checks: checks, logger: logger}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, h.srv)
	return h
}

// Probe runs every check once and publishes the combined result.
func (h *Health) Probe(ctx context.Context) bool {
	ok := true
	for _, c := range h.checks {
		if c.Check == nil {
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.Check(cctx)
		cancel()
		if err != nil {
			ok = false
			h.logger.Warn("health probe failed", "check", c.Name, "err", err)
		}
	}
	if ok {
		h.set(healthpb.HealthCheckResponse_SERVING)
	} else {
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return ok
}

// Run probes every interval until ctx ends, then marks everything as shut down.
func (h *Health) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 10 * time.Second
	}
	h.Probe(ctx)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-t.C:
			h.Probe(ctx)
		}
	}
}

func (h *Health) set(st healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", st)
	h.srv.SetServingStatus(ServiceName, st)
}

// Serve listens on addr and stops gracefully when ctx ends.
func Serve(ctx context.Context, logger *slog.Logger, s *grpc.Server, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()
	logger.Info("grpc server starting", "addr", lis.Addr().String())
	return s.Serve(lis)
}
