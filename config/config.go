// Package config loads service configuration from the environment.
//
// A .env file in the working directory is loaded first when present; real
// environment variables always win over values from the file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Session storage backends.
const (
	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"
	SessionBackendMemory   = "memory"
)

// Config is the complete service configuration.
type Config struct {
	Service   ServiceConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Profiling ProfilingConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	Shopify   ShopifyConfig
	Shutdown  ShutdownConfig
}

type ServiceConfig struct {
	Name    string `env:"SERVICE_NAME" envDefault:"b2b-storefront"`
	Version string `env:"SERVICE_VERSION" envDefault:"dev"`
	Env     string `env:"APP_ENV" envDefault:"development"`
	Port    string `env:"PORT" envDefault:"8080"`

	// DebugResponses adds internal error detail to 5xx bodies.
	// It is ignored in production.
	DebugResponses bool `env:"DEBUG_RESPONSES" envDefault:"false"`
}

type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

type TracingConfig struct {
	Enabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	Endpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	SampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"0.1"`
}

type ProfilingConfig struct {
	Enabled  bool   `env:"PROFILING_ENABLED" envDefault:"false"`
	Endpoint string `env:"PYROSCOPE_ENDPOINT" envDefault:"http://localhost:4040"`
}

type DatabaseConfig struct {
	URL            string        `env:"DATABASE_URL"`
	MaxConns       int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"10s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// SessionConfig controls the session cookie and its backing store.
type SessionConfig struct {
	Backend         string        `env:"SESSION_BACKEND" envDefault:"postgres"`
	CookieName      string        `env:"SESSION_COOKIE_NAME" envDefault:"imanix.b2b.session"`
	MaxAge          time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`
}

// ShopifyConfig points at the e-commerce platform's Admin API.
// An empty ShopDomain disables customer enrichment.
type ShopifyConfig struct {
	ShopDomain     string        `env:"SHOPIFY_SHOP_DOMAIN"`
	AccessToken    string        `env:"SHOPIFY_ACCESS_TOKEN"`
	APIVersion     string        `env:"SHOPIFY_API_VERSION" envDefault:"2024-10"`
	EnrichTimeout  time.Duration `env:"SHOPIFY_ENRICH_TIMEOUT" envDefault:"3s"`
	RequestTimeout time.Duration `env:"SHOPIFY_REQUEST_TIMEOUT" envDefault:"30s"`
}

type ShutdownConfig struct {
	Timeout             string `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ReadinessDrainDelay string `env:"READINESS_DRAIN_DELAY" envDefault:"5s"`
}

// Load reads configuration from .env (if present) and the process environment.
// It panics only when the environment holds values that cannot be parsed.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		panic("parse configuration: " + err.Error())
	}
	return &cfg
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if c.Service.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}

	switch c.Session.Backend {
	case SessionBackendPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres session backend"))
		}
	case SessionBackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis session backend"))
		}
	case SessionBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", c.Session.Backend))
	}

	if c.Session.MaxAge <= 0 {
		errs = append(errs, errors.New("SESSION_MAX_AGE must be positive"))
	}
	if c.Session.CleanupInterval <= 0 {
		errs = append(errs, errors.New("SESSION_CLEANUP_INTERVAL must be positive"))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME is required"))
	}
	if c.Shopify.ShopDomain != "" && c.Shopify.AccessToken == "" {
		errs = append(errs, errors.New("SHOPIFY_ACCESS_TOKEN is required when SHOPIFY_SHOP_DOMAIN is set"))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLE_RATE must be between 0 and 1"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Service.Env, "production")
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Service.Env, "development")
}

// DebugResponsesEnabled reports whether error responses may carry internal
// detail: DEBUG_RESPONSES must be set and the service must not be in production.
func (c *Config) DebugResponsesEnabled() bool {
	return c.Service.DebugResponses && !c.IsProduction()
}

// GetShutdownTimeoutDuration returns the graceful shutdown budget.
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return parseDurationOr(c.Shutdown.Timeout, 10*time.Second)
}

// GetReadinessDrainDelayDuration returns how long /ready reports 503
// before the HTTP server starts shutting down.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return parseDurationOr(c.Shutdown.ReadinessDrainDelay, 0)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
