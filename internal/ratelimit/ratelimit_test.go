package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewMemoryLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	d, err := rl.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 1, d.Remaining)

	d, _ = rl.Allow(ctx, "10.0.0.1")
	require.True(t, d.Allowed)

	d, _ = rl.Allow(ctx, "10.0.0.1")
	require.False(t, d.Allowed)
	require.Equal(t, time.Minute, d.RetryAfter)

	d, _ = rl.Allow(ctx, "10.0.0.2")
	require.True(t, d.Allowed, "keys are independent")

	now = now.Add(61 * time.Second)
	d, _ = rl.Allow(ctx, "10.0.0.1")
	require.True(t, d.Allowed, "window resets")
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ctx := context.Background()
	rl := NewRedisLimiter(rdb, "test:login:", 2, time.Minute)
	key := uuid.NewString()
	defer rdb.Del(ctx, "test:login:"+key)

	for i := 0; i < 2; i++ {
		d, err := rl.Allow(ctx, key)
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	d, err := rl.Allow(ctx, key)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Greater(t, d.RetryAfter, time.Duration(0))
}
