// Package config defines the server configuration and how it is loaded.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StorageType selects the record store: memory, redis, sqlite or postgres.
	StorageType string `koanf:"storage_type"`
	RedisURL    string `koanf:"redis_url"`
	SQLitePath  string `koanf:"sqlite_path"`
	PostgresDSN string `koanf:"postgres_dsn"`

	// CatalogPath and SeedPath point at optional YAML files.
	CatalogPath string `koanf:"catalog_path"`
	SeedPath    string `koanf:"seed_path"`

	// Payment provider settings. An empty access token disables checkouts.
	PaymentAccessToken string        `koanf:"payment_access_token"`
	PaymentBaseURL     string        `koanf:"payment_base_url"`
	PaymentTimeout     time.Duration `koanf:"payment_timeout"`
	NotificationURL    string        `koanf:"notification_url"`
	BackURL            string        `koanf:"back_url"`
	CurrencyID         string        `koanf:"currency_id"`

	// MaxConflictAttempts bounds read-modify-write retries on version conflicts.
	MaxConflictAttempts int `koanf:"max_conflict_attempts"`

	// CooldownSweepSchedule is a cron spec for removing expired cooldowns.
	CooldownSweepSchedule string `koanf:"cooldown_sweep_schedule"`

	// PaymentLedgerTTL is how long processed payment ids are remembered (redis).
	PaymentLedgerTTL time.Duration `koanf:"payment_ledger_ttl"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":8080",
		StorageType:           StorageMemory,
		RedisURL:              "redis://localhost:6379",
		SQLitePath:            "data/rpgdash.db",
		PaymentBaseURL:        "https://api.mercadopago.com",
		PaymentTimeout:        10 * time.Second,
		CurrencyID:            "BRL",
		MaxConflictAttempts:   3,
		CooldownSweepSchedule: "@every 1m",
		PaymentLedgerTTL:      30 * 24 * time.Hour,
		ShutdownTimeout:       30 * time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.StorageType {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: redis_url is required for redis storage", ErrInvalidConfig)
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path is required for sqlite storage", ErrInvalidConfig)
		}
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres_dsn is required for postgres storage", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage_type %q", ErrInvalidConfig, c.StorageType)
	}
	if c.MaxConflictAttempts < 1 {
		return fmt.Errorf("%w: max_conflict_attempts must be at least 1", ErrInvalidConfig)
	}
	if c.CooldownSweepSchedule == "" {
		return fmt.Errorf("%w: cooldown_sweep_schedule must not be empty", ErrInvalidConfig)
	}
	if c.PaymentLedgerTTL <= 0 {
		return fmt.Errorf("%w: payment_ledger_ttl must be positive", ErrInvalidConfig)
	}
	return nil
}

// SQLDSN returns the connection string for the selected SQL backend
func (c *Config) SQLDSN() string {
	if c.StorageType == StoragePostgres {
		return c.PostgresDSN
	}
	return c.SQLitePath
}

// ParseLogLevel maps a configured level name to a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, level)
	}
}
