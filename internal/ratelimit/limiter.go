// Package ratelimit throttles fetches per host so a crawl never hammers one site.
package ratelimit

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultRPS   = 5.0
	DefaultBurst = 10
)

// RateLimiter is what fetch backends wait on before each request
type RateLimiter interface {
	// Wait blocks until a request for rawURL may proceed or ctx is done
	Wait(ctx context.Context, rawURL string) error
}

// HostLimiter keeps one token bucket per host
type HostLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

// NewHostLimiter creates a limiter allowing rps requests per second per host
func NewHostLimiter(rps float64, burst int) *HostLimiter {
	if rps <= 0 {
		rps = DefaultRPS
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(rps),
		burst:    burst,
	}
}

// Wait blocks on the bucket of rawURL's host. Unparseable URLs pass through
// and fail later at request time.
func (hl *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	host := hostOf(rawURL)
	if host == "" {
		return nil
	}
	return hl.bucket(host).Wait(ctx)
}

func (hl *HostLimiter) bucket(host string) *rate.Limiter {
	hl.mu.RLock()
	l, ok := hl.limiters[host]
	hl.mu.RUnlock()
	if ok {
		return l
	}

	hl.mu.Lock()
	defer hl.mu.Unlock()
	if l, ok := hl.limiters[host]; ok {
		return l
	}
	l = rate.NewLimiter(hl.perHost, hl.burst)
	hl.limiters[host] = l
	return l
}

// NewPacer returns a limiter spacing one crawl's requests at least delay
// apart, as asked by a robots.txt Crawl-delay. delay is clamped to ceiling.
// A nil limiter is returned when no delay applies.
func NewPacer(delay, ceiling time.Duration) *rate.Limiter {
	if delay <= 0 {
		return nil
	}
	if ceiling > 0 && delay > ceiling {
		delay = ceiling
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
