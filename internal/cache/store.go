// Package cache holds the per-session "last transfer" hand-off written by the
// submission flow and read back by the status pages.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented key/value store with expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Config selects and tunes the backing store.
type Config struct {
	Backend    string        `mapstructure:"backend"` // "memory" or "redis"
	TTL        time.Duration `mapstructure:"ttl"`
	RedisAddr  string        `mapstructure:"redis_addr"`
	RedisDB    int           `mapstructure:"redis_db"`
	RedisPass  string        `mapstructure:"redis_password"`
	OpTimeout  time.Duration `mapstructure:"op_timeout"`
	SweepEvery time.Duration `mapstructure:"sweep_every"`
}

// DefaultConfig returns an in-memory store keeping hand-offs for a day.
func DefaultConfig() Config {
	return Config{
		Backend:    "memory",
		TTL:        24 * time.Hour,
		RedisAddr:  "localhost:6379",
		OpTimeout:  500 * time.Millisecond,
		SweepEvery: 5 * time.Minute,
	}
}

// NewStore builds the store named by cfg.Backend.
func NewStore(cfg Config) Store {
	if cfg.Backend == "redis" {
		return NewRedis(cfg)
	}
	return NewMemory()
}
