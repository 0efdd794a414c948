// Package ratelimit throttles expensive operations per user. The serving
// implementation is a fixed-window counter in Redis so limits hold across
// replicas.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more operation is allowed for key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Config holds the limiter settings.
type Config struct {
	RedisURL string        `env:"REDIS_URL,required"`
	Limit    int           `env:"UPLOAD_RATE_LIMIT" envDefault:"30"` // Operations per window
	Window   time.Duration `env:"UPLOAD_RATE_WINDOW" envDefault:"1m"`
}

// RedisLimiter is a fixed-window counter limiter.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	prefix string
}

// Connect creates the Redis client and verifies the connection.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// New builds a limiter over client. Limit and window fall back to 30/min
// when unset.
func New(client *redis.Client, cfg Config) *RedisLimiter {
	limit := cfg.Limit
	if limit <= 0 {
		limit = 30
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		prefix: "ratelimit:",
	}
}

// Allow counts one operation against key's current window. The first hit in
// a window sets the expiry. A Redis failure fails open.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.prefix + key

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("ratelimit incr: %w", err)
	}

	return count.Val() <= l.limit, nil
}
