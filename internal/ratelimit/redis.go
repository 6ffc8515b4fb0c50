package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares window counters between processes. The expiry is set
// only by the request that opens a window (EXPIRE NX, Redis 7+), so later
// requests never extend it.
type RedisLimiter struct {
	client    redis.Cmdable
	keyPrefix string
	limit     int
	window    time.Duration
	now       func() time.Time
}

func NewRedisLimiter(client redis.Cmdable, keyPrefix string, limit int, windowSize time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		window:    windowSize,
		now:       time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	if key == "" {
		key = "unknown"
	}
	rKey := l.keyPrefix + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, rKey)
	pipe.ExpireNX(ctx, rKey, l.window)
	pttl := pipe.PTTL(ctx, rKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit pipeline for %s: %w", key, err)
	}

	ttl := pttl.Val()
	if ttl <= 0 {
		ttl = l.window
	}
	return newResult(incr.Val(), l.limit, l.now().Add(ttl)), nil
}
