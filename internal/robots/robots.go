// Package robots reads a site's robots.txt and answers crawl permission checks.
package robots

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
	"github.com/temoto/robotstxt"
)

// Policy answers whether a path may be crawled. The zero value and a nil
// Policy allow everything.
type Policy struct {
	data  *robotstxt.RobotsData
	agent string
}

// AllowAll is a policy with no restrictions
func AllowAll() *Policy {
	return &Policy{}
}

// Load fetches /robots.txt for the origin of baseURL. A missing, unreachable
// or unparsable file yields a policy that allows everything.
func Load(ctx context.Context, client *http.Client, baseURL, userAgent string) *Policy {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return AllowAll()
	}
	robotsURL := (&url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/robots.txt"}).String()

	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return AllowAll()
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", robotsURL).Msg("robots.txt unavailable, allowing all")
		return AllowAll()
	}
	defer resp.Body.Close()

	// 4xx means allow all and 5xx means disallow all
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		log.Debug().Err(err).Str("url", robotsURL).Msg("robots.txt unparsable, allowing all")
		return AllowAll()
	}

	log.Debug().Str("url", robotsURL).Int("status", resp.StatusCode).Msg("Loaded robots.txt")
	return &Policy{data: data, agent: userAgent}
}

// Allowed reports whether rawURL may be fetched
func (p *Policy) Allowed(rawURL string) bool {
	if p == nil || p.data == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return p.data.TestAgent(path, p.agent)
}

// CrawlDelay returns the crawl delay requested for the agent, or zero
func (p *Policy) CrawlDelay() float64 {
	if p == nil || p.data == nil {
		return 0
	}
	return p.data.FindGroup(p.agent).CrawlDelay.Seconds()
}
