package gantry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gantry-dev/gantry/pkg/middleware"
	"github.com/gantry-dev/gantry/pkg/session"
)

// Environment names recognized by Env.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// SessionConfig configures the Redis-backed session store.
//
// Sessions activate only when both RedisURL and Secret are set; with either
// missing the application runs without persisted sessions.
type SessionConfig struct {
	// RedisURL is the session cache connection URL
	// (e.g. "redis://localhost:6379/0").
	RedisURL string

	// Secret signs the session ID cookie.
	Secret string

	// CookieName is the session cookie name.
	// Default: "gantry.sid".
	CookieName string

	// TTL is the session lifetime.
	// Default: 24 hours.
	TTL time.Duration

	// KeyPrefix is the Redis key prefix.
	// Default: "sess:".
	KeyPrefix string
}

// MetricsConfig configures the Prometheus middleware and /metrics endpoint.
type MetricsConfig struct {
	// Enabled turns on request metrics and the /metrics endpoint.
	Enabled bool
}

// TracingConfig configures the OpenTelemetry middleware.
type TracingConfig struct {
	// Enabled turns on a span per request.
	Enabled bool
}

// Config is the application configuration.
// This is the user-friendly entry point for configuring a Gantry app.
type Config struct {
	// Port is the port the server binds to. Required.
	Port int

	// AppRoot is the base path for the application/ tree
	// (views, static assets). Default: current working directory.
	AppRoot string

	// LogFormat is the request log line format: common, combined, dev,
	// short, or tiny. Default: "common".
	LogFormat string

	// ViewEngine is the template file extension registered as the view
	// engine (e.g. "html"). Empty means API-only mode: no templates are
	// loaded and render calls fail.
	ViewEngine string

	// Session configures the session store.
	Session SessionConfig

	// RedirectSecure redirects plain-HTTP requests to HTTPS when running
	// in production.
	RedirectSecure bool

	// Env is the runtime environment: "production" disables stack traces
	// in error payloads and arms RedirectSecure. Default: "development".
	Env string

	// Logger is the structured logger for the application.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Metrics configures Prometheus instrumentation.
	Metrics MetricsConfig

	// Tracing configures OpenTelemetry instrumentation.
	Tracing TracingConfig
}

// DefaultConfig returns a Config with defaults applied.
// Port has no default and must be supplied.
func DefaultConfig() Config {
	return Config{
		AppRoot:   ".",
		LogFormat: middleware.FormatCommon,
		Env:       EnvDevelopment,
		Session: SessionConfig{
			CookieName: "gantry.sid",
			TTL:        24 * time.Hour,
			KeyPrefix:  session.DefaultKeyPrefix,
		},
	}
}

// envConfig mirrors the environment variables read by ConfigFromEnv.
type envConfig struct {
	Port            int    `env:"PORT"`
	Env             string `env:"GANTRY_ENV" envDefault:"development"`
	AppRoot         string `env:"GANTRY_APP_ROOT" envDefault:"."`
	LogFormat       string `env:"GANTRY_LOG_FORMAT" envDefault:"common"`
	ViewEngine      string `env:"GANTRY_VIEW_ENGINE"`
	SessionRedisURL string `env:"GANTRY_SESSION_REDIS_URL"`
	SessionSecret   string `env:"GANTRY_SESSION_SECRET"`
	RedirectSecure  bool   `env:"GANTRY_REDIRECT_SECURE"`
}

// ConfigFromEnv builds a Config from the process environment.
//
// PORT and GANTRY_ENV follow the usual deployment conventions; the
// remaining GANTRY_* variables cover the optional features.
func ConfigFromEnv() (Config, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return Config{}, fmt.Errorf("gantry: parsing environment: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Port = ec.Port
	cfg.Env = ec.Env
	cfg.AppRoot = ec.AppRoot
	cfg.LogFormat = ec.LogFormat
	cfg.ViewEngine = ec.ViewEngine
	cfg.Session.RedisURL = ec.SessionRedisURL
	cfg.Session.Secret = ec.SessionSecret
	cfg.RedirectSecure = ec.RedirectSecure
	return cfg, nil
}

// Validate checks the configuration before any wiring happens.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("gantry: listen port is required (got %d)", c.Port)
	}
	if c.LogFormat != "" && !middleware.KnownFormat(c.LogFormat) {
		return fmt.Errorf("gantry: unknown log format %q", c.LogFormat)
	}
	return nil
}

// IsProduction reports whether the app runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// sessionsEnabled reports whether both session options are present.
func (c Config) sessionsEnabled() bool {
	return c.Session.RedisURL != "" && c.Session.Secret != ""
}

// withDefaults fills zero-valued optional fields.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.AppRoot == "" {
		c.AppRoot = def.AppRoot
	}
	if c.LogFormat == "" {
		c.LogFormat = def.LogFormat
	}
	if c.Env == "" {
		c.Env = def.Env
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = def.Session.CookieName
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = def.Session.TTL
	}
	if c.Session.KeyPrefix == "" {
		c.Session.KeyPrefix = def.Session.KeyPrefix
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
