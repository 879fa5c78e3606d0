// Package ratelimit provides fixed-window limiters keyed by an arbitrary string (client IP for
// login). The Redis limiter shares counts across replicas; the memory limiter is per process.
package ratelimit

import (
	"context"
	"time"
)

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}
