package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

// Allow counts the hit in a window that starts with the first hit for key. SETNX creates the key
// with its TTL and INCR keeps it, so no key outlives its window.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	k := rl.prefix + key

	pipe := rl.rdb.TxPipeline()
	pipe.SetNX(ctx, k, 0, rl.window)
	incr := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)

	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	count := int(incr.Val())
	if count > rl.limit {
		retryAfter := ttl.Val()
		if retryAfter < 0 {
			retryAfter = rl.window
		}
		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}

	return Decision{Allowed: true, Remaining: rl.limit - count}, nil
}
