// Package config loads process configuration from SEEDBED_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/aretw0/seedbed/internal/logging"
	"github.com/aretw0/seedbed/pkg/domain"
	"github.com/caarlos0/env/v11"
)

// Config is the process configuration shared by the CLI, HTTP and MCP hosts.
// Command-line flags override it.
type Config struct {
	Port int `env:"SEEDBED_PORT" envDefault:"8080"`

	// Session storage: Redis when RedisAddr is set, files when SessionDir is
	// set, memory otherwise.
	RedisAddr     string        `env:"SEEDBED_REDIS_ADDR"`
	RedisPassword string        `env:"SEEDBED_REDIS_PASSWORD"`
	RedisDB       int           `env:"SEEDBED_REDIS_DB" envDefault:"0"`
	SessionTTL    time.Duration `env:"SEEDBED_SESSION_TTL" envDefault:"0s"`
	SessionDir    string        `env:"SEEDBED_SESSION_DIR"`

	// SessionKey enables encryption at rest: comma-separated base64 AES-256
	// keys, the first one active and the rest accepted for decryption.
	SessionKey string `env:"SEEDBED_SESSION_KEY"`

	LogLevel  string `env:"SEEDBED_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"SEEDBED_LOG_FORMAT" envDefault:"text"`

	Seed          int64  `env:"SEEDBED_SEED"`
	JustOnceScope string `env:"SEEDBED_JUST_ONCE_SCOPE" envDefault:"session"`

	// OTelEndpoint enables OTLP/HTTP trace export when set.
	OTelEndpoint string `env:"SEEDBED_OTEL_ENDPOINT"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("SEEDBED_PORT out of range: %d", c.Port)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("SEEDBED_SESSION_TTL must be >= 0")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("SEEDBED_LOG_LEVEL: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("SEEDBED_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if _, err := domain.ParseJustOnceScope(c.JustOnceScope); err != nil {
		return fmt.Errorf("SEEDBED_JUST_ONCE_SCOPE: %w", err)
	}
	return nil
}

// Scope returns the validated just_once scope.
func (c Config) Scope() domain.JustOnceScope {
	scope, err := domain.ParseJustOnceScope(c.JustOnceScope)
	if err != nil {
		return domain.ScopeSession
	}
	return scope
}
