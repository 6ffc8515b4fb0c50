// Package ratelimit implements fixed-window request counters keyed by client
// identifier (an IP for the public endpoint, an API key for the authenticated API).
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one counted request.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is when the current window ends and the counter starts over.
	ResetAt time.Time
}

// RetryAfter is how long a denied caller should wait, rounded up to whole seconds.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return time.Second
	}
	return (d + time.Second - 1) / time.Second * time.Second
}

// Limiter counts a request against key and reports whether it is allowed.
// Implementations must be safe for concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// CheckRateLimit counts a request and returns true when it is allowed.
// Backend errors fail open.
func CheckRateLimit(ctx context.Context, l Limiter, key string) bool {
	res, err := l.Allow(ctx, key)
	if err != nil {
		return true
	}
	return res.Allowed
}

func newResult(count int64, limit int, resetAt time.Time) Result {
	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: int(remaining),
		ResetAt:   resetAt,
	}
}
