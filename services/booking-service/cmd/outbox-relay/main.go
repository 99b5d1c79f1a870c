package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/md-rashed-zaman/turnos/libs/config"
	"github.com/md-rashed-zaman/turnos/libs/db"
	"github.com/md-rashed-zaman/turnos/libs/kafkax"
	otelx "github.com/md-rashed-zaman/turnos/libs/otel"
	"github.com/md-rashed-zaman/turnos/libs/runtime"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/outbox"
)

// outbox-relay publishes committed booking events from Postgres to Kafka.
func main() {
	_ = config.LoadDotEnv()
	service := config.String("SERVICE_NAME", "booking-outbox-relay")
	logger := runtime.NewLogger(service, config.String("LOG_LEVEL", "info"))

	port, err := config.Port("PORT", "8093")
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}
	brokers := kafkax.SplitBrokers(config.String("KAFKA_BROKERS", ""))
	if len(brokers) == 0 {
		logger.Error("config error", "err", "KAFKA_BROKERS is required")
		os.Exit(1)
	}
	pollEvery, err := config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}
	batch, err := config.Int("OUTBOX_BATCH_SIZE", 50)
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, dbURL, db.Options{MaxConns: 4})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	writer := kafkax.NewWriter(brokers)
	defer func() { _ = writer.Close() }()

	relay := outbox.NewRelay(pool, outbox.NewRepository(pool), writer, logger, outbox.RelayConfig{
		PollEvery: pollEvery,
		BatchSize: batch,
	})
	go relay.Run(ctx)

	srv := &http.Server{
		Addr: ":" + port,
		Handler: runtime.NewBaseMuxWithReady(
			runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
			runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
		),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("outbox relay starting", "addr", srv.Addr, "brokers", brokers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("outbox relay stopped")
}
