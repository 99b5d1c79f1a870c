package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/turnos/libs/auth"
	"github.com/md-rashed-zaman/turnos/libs/config"
	"github.com/md-rashed-zaman/turnos/libs/db"
	"github.com/md-rashed-zaman/turnos/libs/grpcx"
	"github.com/md-rashed-zaman/turnos/libs/httpx"
	"github.com/md-rashed-zaman/turnos/libs/kafkax"
	otelx "github.com/md-rashed-zaman/turnos/libs/otel"
	"github.com/md-rashed-zaman/turnos/libs/runtime"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/calendar"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/consumer"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/grpcserver"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/inbox"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/schedule"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/storage/memstore"
	"github.com/md-rashed-zaman/turnos/services/booking-service/internal/tenancy"
)

// repositories is the storage surface the engines need, whichever driver backs it.
type repositories struct {
	appointments booking.Appointments
	services     interface {
		booking.Services
		catalog.Repository
	}
	schedules interface {
		booking.Schedules
		schedule.Repository
	}
	businesses interface {
		booking.Businesses
		tenancy.Lookup
		consumer.Businesses
	}
	events outbox.Sink
	inbox  consumer.Inbox
	ready  runtime.ReadyCheck
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := healthcheck(); err != nil {
			fmt.Fprintln(os.Stderr, "unhealthy:", err)
			os.Exit(1)
		}
		return
	}
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("load .env", "err", err)
		os.Exit(1)
	}
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := runtime.NewLogger(cfg.Service, cfg.LogLevel)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.Service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	reg := metrics.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(reg)

	var pool *db.Pool
	repos := repositories{}
	switch cfg.Driver {
	case driverPostgres:
		pool, err = db.Open(ctx, cfg.DatabaseURL, db.Options{})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		repos = postgresRepositories(pool)
	default:
		repos = memoryRepositories(cfg, logger)
	}
	checks := []runtime.ReadyCheck{repos.ready}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	if len(cfg.Brokers) > 0 {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.Brokers)})
	}

	clock := calendar.NewClock(cfg.Timezone)
	slots := availability.NewEngine(repos.services, repos.schedules, repos.appointments, clock)
	engine := booking.NewEngine(booking.Deps{
		Appointments:  repos.appointments,
		Services:      repos.services,
		Schedules:     repos.schedules,
		Businesses:    repos.businesses,
		Availability:  slots,
		Events:        repos.events,
		Metrics:       bookingMetrics,
		Logger:        logger,
		Clock:         clock,
		PublicBaseURL: cfg.PublicURL,
		TokenTTL:      cfg.TokenTTL,
	})

	var tenants *tenancy.Resolver
	var limiter httpx.Limiter
	if rdb != nil {
		tenants = tenancy.NewResolver(repos.businesses, rdb, tenancy.DefaultCacheTTL, logger)
		limiter = httpx.NewRedisRateLimiter(rdb, cfg.RateLimit, cfg.RateEvery, "turnos:rl:public")
	} else {
		tenants = tenancy.NewResolver(repos.businesses, nil, 0, logger)
		limiter = httpx.NewMemoryRateLimiter(cfg.RateLimit, cfg.RateEvery)
	}

	if len(cfg.Brokers) > 0 {
		reader := consumer.NewReader(consumer.Config{
			Brokers: cfg.Brokers,
			GroupID: config.String("KAFKA_GROUP_ID", cfg.Service),
			Topic:   config.String("KAFKA_BUSINESS_TOPIC", consumer.BusinessUpdatedTopic),
		})
		go consumer.New(logger, repos.inbox, reader, consumer.ProjectBusiness(repos.businesses, tenants, logger)).Run(ctx)
	}

	var jwks *auth.JWKSClient
	if cfg.JWKSURL != "" {
		jwks = auth.NewJWKSClient(cfg.JWKSURL, 10*time.Minute)
	}
	verifier := auth.NewVerifier(cfg.JWTSecret, jwks)

	api := handlers.New(handlers.Deps{
		Schedule:     schedule.NewService(repos.schedules),
		Availability: slots,
		Booking:      engine,
		Catalog:      catalog.New(repos.services),
		Tenants:      tenants,
		Metrics:      bookingMetrics,
		Logger:       logger,
	})

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("GET /metrics", metrics.Handler(reg))
	mux.Handle("/api/", api.Routes(
		auth.RequireBearer(verifier, cfg.OwnerRoles...),
		httpx.RateLimit(limiter, logger, cfg.FailOpen),
	))

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithBodyLimit(cfg.BodyLimit),
		httpx.WithTimeout(cfg.Timeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")

	grpcServer := grpcx.NewServer(logger)
	health := grpcserver.Register(grpcServer, logger, checks...)
	go health.Run(ctx, 15*time.Second)
	go func() {
		if err := grpcserver.Serve(ctx, logger, grpcServer, ":"+cfg.GRPCPort); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "storage", cfg.Driver, "timezone", cfg.Timezone.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func postgresRepositories(pool *db.Pool) repositories {
	appts := storage.NewAppointmentRepository(pool)
	return repositories{
		appointments: appts,
		services:     storage.NewServiceRepository(pool),
		schedules:    storage.NewScheduleRepository(pool),
		businesses:   storage.NewBusinessRepository(pool),
		events:       outbox.NewRepository(pool),
		inbox:        inbox.NewRepository(pool),
		ready:        runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
	}
}

func memoryRepositories(cfg Config, logger *slog.Logger) repositories {
	store := memstore.New()
	if cfg.DevBusinessSlug != "" {
		b := store.PutBusiness(model.Business{ID: cfg.DevBusinessID, Slug: cfg.DevBusinessSlug, Name: cfg.DevBusinessSlug})
		logger.Info("seeded memory tenant", "business_id", b.ID, "slug", b.Slug)
	}
	return repositories{
		appointments: store,
		services:     store,
		schedules:    store,
		businesses:   store,
		events:       outbox.NewMemory(),
		inbox:        inbox.NewMemory(),
		ready:        runtime.ReadyCheck{Name: "storage", Check: store.Ping},
	}
}
