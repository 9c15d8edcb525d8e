package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// CooldownRetention bounds how long a cooldown key may linger after it was written.
	// Expired entries are also removed by SweepCooldowns.
	CooldownRetention time.Duration

	// PaymentLedgerTTL is how long a processed payment id is remembered
	PaymentLedgerTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:               "redis://localhost:6379",
		PoolSize:          10,
		MinIdleConns:      2,
		CooldownRetention: 24 * time.Hour,
		PaymentLedgerTTL:  30 * 24 * time.Hour,
	}
}
