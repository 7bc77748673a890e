// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter paces page navigations.
type Limiter interface {
	// Wait blocks until a navigation to rawURL may start, or ctx is done.
	Wait(ctx context.Context, rawURL string) error
}

// HostLimiter is a token bucket per host
type HostLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	perHost  rate.Limit
	burst    int
}

// NewHostLimiter creates a limiter allowing navigationsPerSecond per host
func NewHostLimiter(navigationsPerSecond float64, burst int) *HostLimiter {
	if navigationsPerSecond <= 0 {
		navigationsPerSecond = 1.0
	}
	if burst <= 0 {
		burst = 1
	}

	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(navigationsPerSecond),
		burst:    burst,
	}
}

// Wait blocks until the navigation to rawURL fits in its host's budget
func (hl *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	host := hostOf(rawURL)
	if host == "" {
		// about:blank and friends are not paced
		return nil
	}

	return hl.limiter(host).Wait(ctx)
}

// SetLimit overrides the budget for one host
func (hl *HostLimiter) SetLimit(host string, navigationsPerSecond float64, burst int) {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	host = strings.ToLower(host)
	if l, ok := hl.limiters[host]; ok {
		l.SetLimit(rate.Limit(navigationsPerSecond))
		l.SetBurst(burst)
		return
	}
	hl.limiters[host] = rate.NewLimiter(rate.Limit(navigationsPerSecond), burst)
}

func (hl *HostLimiter) limiter(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	l, ok := hl.limiters[host]
	if !ok {
		l = rate.NewLimiter(hl.perHost, hl.burst)
		hl.limiters[host] = l
	}
	return l
}

// Unlimited never blocks
type Unlimited struct{}

// Wait implements Limiter
func (Unlimited) Wait(ctx context.Context, rawURL string) error {
	return ctx.Err()
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
