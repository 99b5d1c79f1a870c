package main

import (
	"context"
	"fmt"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/md-rashed-zaman/turnos/libs/config"
	"github.com/md-rashed-zaman/turnos/libs/grpcx"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/grpcserver"
)

// healthcheck asks the local gRPC health service whether the booking API is
// serving. It backs `booking-service healthcheck` in container probes.
func healthcheck() error {
	port, err := config.Port("GRPC_PORT", "9093")
	if err != nil {
		return err
	}
	conn, err := grpcx.NewClient("127.0.0.1:"+port, nil)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: grpcserver.ServiceName})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("status %s", resp.GetStatus())
	}
	return nil
}
