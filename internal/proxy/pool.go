// Package proxy rotates outbound fetches across a list of proxies.
package proxy

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultCooldown is how long a failed proxy sits out of the rotation
const DefaultCooldown = 5 * time.Minute

// Pool hands out proxies round-robin, skipping ones that failed recently
type Pool struct {
	mu       sync.Mutex
	proxies  []string
	next     int
	failed   map[string]time.Time
	cooldown time.Duration
	now      func() time.Time
}

// Parse validates proxy URLs. Accepted schemes are http, https and socks5.
func Parse(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		u, err := url.Parse(r)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q", r)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return nil, fmt.Errorf("unsupported proxy scheme %q in %q", u.Scheme, r)
		}
		out = append(out, u.String())
	}
	return out, nil
}

// NewPool creates a pool. It returns nil when there are no proxies, and a
// nil *Pool hands out no proxy.
func NewPool(proxies []string) *Pool {
	if len(proxies) == 0 {
		return nil
	}
	return &Pool{
		proxies:  append([]string(nil), proxies...),
		failed:   make(map[string]time.Time),
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
}

// Next returns the next usable proxy. When every proxy is cooling down it
// returns the one whose failure is oldest.
func (p *Pool) Next() string {
	if p == nil {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	oldest := ""
	var oldestAt time.Time
	for range p.proxies {
		candidate := p.proxies[p.next]
		p.next = (p.next + 1) % len(p.proxies)

		at, ok := p.failed[candidate]
		if !ok {
			return candidate
		}
		if now.Sub(at) >= p.cooldown {
			delete(p.failed, candidate)
			return candidate
		}
		if oldest == "" || at.Before(oldestAt) {
			oldest, oldestAt = candidate, at
		}
	}
	return oldest
}

// MarkFailed takes a proxy out of rotation for the cooldown period
func (p *Pool) MarkFailed(proxy string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.failed[proxy] = p.now()
	p.mu.Unlock()
}

// MarkHealthy puts a proxy back into rotation
func (p *Pool) MarkHealthy(proxy string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	delete(p.failed, proxy)
	p.mu.Unlock()
}

// Len returns the number of configured proxies
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.proxies)
}
