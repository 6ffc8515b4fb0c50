package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

type window struct {
	count     int64
	resetTime time.Time
}

// MemoryLimiter keeps window counters in process memory. Expired windows are
// swept by the cache janitor so unique keys do not accumulate.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows *cache.Cache
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewMemoryLimiter allows limit requests per key per window.
func NewMemoryLimiter(limit int, windowSize, cleanupInterval time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: cache.New(windowSize, cleanupInterval),
		limit:   limit,
		window:  windowSize,
		now:     time.Now,
	}
}

// WithNowFunc allows tests to override the time source.
func (l *MemoryLimiter) WithNowFunc(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	if key == "" {
		key = "unknown"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	var w *window
	if v, ok := l.windows.Get(key); ok {
		w = v.(*window)
	}

	if w == nil || now.After(w.resetTime) {
		w = &window{count: 1, resetTime: now.Add(l.window)}
		l.windows.Set(key, w, l.window)
		return newResult(w.count, l.limit, w.resetTime), nil
	}

	w.count++
	return newResult(w.count, l.limit, w.resetTime), nil
}

// Len returns the number of live windows.
func (l *MemoryLimiter) Len() int {
	return l.windows.ItemCount()
}
