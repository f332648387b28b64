package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/docdex"
	"golang.org/x/time/rate"
)

var _ docdex.HostLimiter = (*HostLimiter)(nil)

// HostLimiter enforces a minimum interval between requests to one host.
// Each host gets its own token bucket with a burst of 1, so no two requests
// to the same host depart closer than the configured interval; requests to
// different hosts proceed independently.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

// NewHostLimiter creates a HostLimiter with the given per-host interval.
// A zero or negative interval disables limiting.
func NewHostLimiter(interval time.Duration) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// Wait blocks until the rate limit allows a request to the host.
// Returns an error if the context is canceled before the wait completes.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	if l.interval <= 0 {
		return nil
	}

	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
