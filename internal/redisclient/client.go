// Package redisclient owns the Redis connection behind the login limiter.
package redisclient

import (
	"context"
	"time"

	"github.com/geocoder89/orgdir/internal/config"
	"github.com/geocoder89/orgdir/internal/ratelimit"
	"github.com/redis/go-redis/v9"
)

const (
	ioTimeout   = 2 * time.Second
	loginPrefix = "orgdir:login:"
)

type Client struct {
	rdb *redis.Client
}

// Open connects using the REDIS_* settings and pings once. The client is returned even when
// the ping fails so callers can decide whether a cold Redis is fatal.
func Open(ctx context.Context, cfg config.Config) (*Client, error) {
	c := &Client{rdb: redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  ioTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})}

	pctx, cancel := config.WithTimeout(ctx, ioTimeout)
	defer cancel()

	return c, c.Ping(pctx)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// LoginLimiter counts login attempts in Redis so every replica shares one budget per key.
func (c *Client) LoginLimiter(limit int, window time.Duration) *ratelimit.RedisLimiter {
	return ratelimit.NewRedisLimiter(c.rdb, loginPrefix, limit, window)
}
