package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"transfer-status-backend/internal/api"
	"transfer-status-backend/internal/cache"
	"transfer-status-backend/internal/poller"
	"transfer-status-backend/internal/resolver"
	"transfer-status-backend/internal/server"
	"transfer-status-backend/internal/stats"
	"transfer-status-backend/internal/utils"
)

// EnvPrefix prefixes every environment override, e.g. TRANSFERSTATUS_API_BASE_URL.
const EnvPrefix = "TRANSFERSTATUS"

// Config holds all application configuration
type Config struct {
	Server   server.Config   `mapstructure:"server"`
	API      api.Config      `mapstructure:"api"`
	Poller   poller.Config   `mapstructure:"poller"`
	Resolver resolver.Config `mapstructure:"resolver"`
	Cache    cache.Config    `mapstructure:"cache"`
	Stats    stats.Config    `mapstructure:"stats"`
	Log      LogConfig       `mapstructure:"log"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
	// StackTraces attaches call stacks to wrapped errors.
	StackTraces bool `mapstructure:"stack_traces"`
}

// DefaultConfig returns default configuration for the entire application
func DefaultConfig() Config {
	return Config{
		Server:   server.DefaultConfig(),
		API:      api.DefaultConfig(),
		Poller:   poller.DefaultConfig(),
		Resolver: resolver.DefaultConfig(),
		Cache:    cache.DefaultConfig(),
		Stats:    stats.DefaultConfig(),
		Log: LogConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// Load layers defaults, the optional YAML file at path, a .env file in the
// working directory and TRANSFERSTATUS_* environment variables, in that order
// of increasing precedence.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, utils.WrapError(err, utils.ErrorTypeConfig, "DOTENV", "error loading .env", "CONFIG")
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, utils.WrapError(err, utils.ErrorTypeConfig, "READ_FAILED", "error reading config file", "CONFIG").
				WithContext("path", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, utils.WrapError(err, utils.ErrorTypeConfig, "DECODE_FAILED", "error decoding config", "CONFIG")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	invalid := func(msg string) error {
		return utils.NewAppError(utils.ErrorTypeConfig, "INVALID", msg, "CONFIG")
	}
	switch {
	case c.Server.Addr == "":
		return invalid("server.addr is required")
	case c.API.BaseURL == "":
		return invalid("api.base_url is required")
	case c.Poller.Interval <= 0:
		return invalid("poller.interval must be positive")
	case c.Poller.FailureThreshold < 0:
		return invalid("poller.failure_threshold must not be negative")
	case c.Cache.Backend != "memory" && c.Cache.Backend != "redis":
		return invalid("cache.backend must be memory or redis")
	case c.Log.Format != "text" && c.Log.Format != "json":
		return invalid("log.format must be text or json")
	}
	return nil
}

// setDefaults registers every key so environment variables can override
// settings absent from the config file.
func setDefaults(v *viper.Viper, d Config) {
	defaults := map[string]interface{}{
		"server.addr":             d.Server.Addr,
		"server.read_timeout":     d.Server.ReadTimeout,
		"server.write_timeout":    d.Server.WriteTimeout,
		"server.shutdown_timeout": d.Server.ShutdownTimeout,
		"server.max_body_bytes":   d.Server.MaxBodyBytes,
		"server.allowed_origin":   d.Server.AllowedOrigin,

		"api.base_url":      d.API.BaseURL,
		"api.timeout":       d.API.Timeout,
		"api.rate_per_sec":  d.API.RatePerSec,
		"api.burst":         d.API.Burst,
		"api.max_retries":   d.API.MaxRetries,
		"api.retry_backoff": d.API.RetryBackoff,
		"api.api_key":       d.API.APIKey,

		"poller.interval":          d.Poller.Interval,
		"poller.failure_threshold": d.Poller.FailureThreshold,
		"poller.update_buffer":     d.Poller.UpdateBuffer,

		"resolver.fetch_timeout": d.Resolver.FetchTimeout,

		"cache.backend":        d.Cache.Backend,
		"cache.ttl":            d.Cache.TTL,
		"cache.redis_addr":     d.Cache.RedisAddr,
		"cache.redis_db":       d.Cache.RedisDB,
		"cache.redis_password": d.Cache.RedisPass,
		"cache.op_timeout":     d.Cache.OpTimeout,
		"cache.sweep_every":    d.Cache.SweepEvery,

		"stats.namespace":        d.Stats.Namespace,
		"stats.bucket_retention": d.Stats.BucketRetention,
		"stats.cleanup_interval": d.Stats.CleanupInterval,

		"log.level":        d.Log.Level,
		"log.format":       d.Log.Format,
		"log.stack_traces": d.Log.StackTraces,
	}
	for k, val := range defaults {
		if dur, ok := val.(time.Duration); ok {
			v.SetDefault(k, dur.String())
			continue
		}
		v.SetDefault(k, val)
	}
}
