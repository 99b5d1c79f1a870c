package main

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/turnos/libs/config"
	"github.com/md-rashed-zaman/turnos/libs/kafkax"
)

const (
	driverMemory   = "memory"
	driverPostgres = "postgres"
)

type Config struct {
	Service     string
	LogLevel    string
	Port        string
	GRPCPort    string
	Driver      string
	DatabaseURL string
	Timezone    *time.Location
	PublicURL   string
	TokenTTL    time.Duration

	JWTSecret  string
	JWKSURL    string
	OwnerRoles []string

	RedisURL  string
	Brokers   []string
	RateLimit int
	RateEvery time.Duration
	FailOpen  bool

	CORSOrigins []string
	BodyLimit   int64
	Timeout     time.Duration

	// DevBusinessSlug seeds one tenant into the memory store.
	DevBusinessSlug string
	DevBusinessID   string
}

func loadConfig() (Config, error) {
	var (
		c   Config
		err error
	)
	c.Service = config.String("SERVICE_NAME", "booking-service")
	c.LogLevel = config.String("LOG_LEVEL", "info")
	if c.Port, err = config.Port("PORT", "8083"); err != nil {
		return c, err
	}
	if c.GRPCPort, err = config.Port("GRPC_PORT", "9093"); err != nil {
		return c, err
	}

	c.Driver = config.String("STORAGE_DRIVER", driverPostgres)
	switch c.Driver {
	case driverPostgres:
		if c.DatabaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
			return c, err
		}
	case driverMemory:
	default:
		return c, fmt.Errorf("STORAGE_DRIVER must be %q or %q (got %q)", driverMemory, driverPostgres, c.Driver)
	}

	tz := config.String("BUSINESS_TIMEZONE", "UTC")
	if c.Timezone, err = time.LoadLocation(tz); err != nil {
		return c, fmt.Errorf("BUSINESS_TIMEZONE: %w", err)
	}
	c.PublicURL = config.String("PUBLIC_BASE_URL", "http://localhost:3000")
	if c.TokenTTL, err = config.Duration("CLIENT_TOKEN_TTL", 30*24*time.Hour); err != nil {
		return c, err
	}

	c.JWTSecret = config.String("JWT_SECRET", "")
	c.JWKSURL = config.String("JWKS_URL", "")
	if c.JWTSecret == "" && c.JWKSURL == "" {
		return c, fmt.Errorf("JWT_SECRET or JWKS_URL is required")
	}
	c.OwnerRoles = config.List("OWNER_ROLES", []string{"owner", "admin"})

	c.RedisURL = config.String("REDIS_URL", "")
	c.Brokers = kafkax.SplitBrokers(config.String("KAFKA_BROKERS", ""))
	if c.RateLimit, err = config.Int("PUBLIC_RATE_LIMIT", 120); err != nil {
		return c, err
	}
	if c.RateEvery, err = config.Duration("PUBLIC_RATE_WINDOW", time.Minute); err != nil {
		return c, err
	}
	c.FailOpen = config.Bool("RATE_LIMIT_FAIL_OPEN", true)

	c.CORSOrigins = config.List("CORS_ALLOWED_ORIGINS", nil)
	limit, err := config.Int("HTTP_BODY_LIMIT_BYTES", 64<<10)
	if err != nil {
		return c, err
	}
	c.BodyLimit = int64(limit)
	if c.Timeout, err = config.Duration("HTTP_HANDLER_TIMEOUT", 15*time.Second); err != nil {
		return c, err
	}

	c.DevBusinessSlug = config.String("DEV_BUSINESS_SLUG", "")
	c.DevBusinessID = config.String("DEV_BUSINESS_ID", "")
	return c, nil
}
