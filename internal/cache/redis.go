package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"transfer-status-backend/internal/utils"
)

// Redis is a Store backed by a Redis server.
type Redis struct {
	client    *redis.Client
	opTimeout time.Duration
}

// NewRedis connects lazily to cfg.RedisAddr.
func NewRedis(cfg Config) *Redis {
	return NewRedisWithClient(redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	}), cfg.OpTimeout)
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, opTimeout time.Duration) *Redis {
	return &Redis{client: client, opTimeout: opTimeout}
}

func (r *Redis) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.opTimeout)
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, utils.WrapError(err, utils.ErrorTypeCache, "REDIS_GET", "redis get failed", "CACHE").
			WithContext("key", key)
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return utils.WrapError(err, utils.ErrorTypeCache, "REDIS_SET", "redis set failed", "CACHE").
			WithContext("key", key)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return utils.WrapError(err, utils.ErrorTypeCache, "REDIS_DEL", "redis delete failed", "CACHE").
			WithContext("key", key)
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
