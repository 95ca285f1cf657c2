// internal/engine/static/scraper.go
package static

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/law-makers/seocrawl/internal/engine"
	"github.com/law-makers/seocrawl/internal/proxy"
	"github.com/law-makers/seocrawl/internal/ratelimit"
	"github.com/law-makers/seocrawl/internal/retry"
	"github.com/law-makers/seocrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 10 * 1024 * 1024
	DefaultMaxRedirects = 5
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Options configures the plain HTTP backend
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	MaxRedirects int
	Headers      map[string]string
	Retries      int
	Proxies      *proxy.Pool
}

func (o *Options) setDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.MaxRedirects <= 0 {
		o.MaxRedirects = DefaultMaxRedirects
	}
}

// Scraper fetches raw markup over HTTP. It needs no per-crawl resources, so
// every session shares the same client.
type Scraper struct {
	limiter ratelimit.RateLimiter
	client  *http.Client
	opts    Options
	retry   retry.Config
}

// New creates a static Scraper. A nil client is replaced by NewClient(opts).
func New(lim ratelimit.RateLimiter, client *http.Client, opts Options) *Scraper {
	opts.setDefaults()
	if client == nil {
		client = NewClient(opts)
	}
	return &Scraper{
		limiter: lim,
		client:  client,
		opts:    opts,
		retry:   retry.DefaultConfig().WithAttempts(opts.Retries),
	}
}

// NewClient builds the HTTP client used for page fetches.
//
// Certificate verification is disabled: the crawler only reads pages for
// analysis, and misconfigured TLS is common on the sites it audits. Do not
// reuse this client where response integrity matters.
func NewClient(opts Options) *http.Client {
	opts.setDefaults()
	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy:               proxyFromContext,
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > opts.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects", opts.MaxRedirects)
			}
			return nil
		},
	}
}

// Name returns the name of this backend
func (s *Scraper) Name() string {
	return "static"
}

// Start returns a session backed by the shared client
func (s *Scraper) Start(ctx context.Context) (engine.Session, error) {
	return engine.SessionFunc(s.Fetch), nil
}

// Fetch retrieves a page. Any status below 500 counts as fetched.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (*models.PageData, error) {
	start := time.Now()

	log.Debug().
		Str("url", rawURL).
		Str("backend", s.Name()).
		Msg("Starting fetch")

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, rawURL); err != nil {
			return nil, engine.WrapTransportError(rawURL, err)
		}
	}

	var pageData *models.PageData
	err := retry.WithRetry(ctx, s.retry, func() error {
		data, err := s.fetchOnce(ctx, rawURL)
		if err != nil {
			return err
		}
		pageData = data
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Str("url", rawURL).Msg("Fetch failed")
		return nil, err
	}

	pageData.ResponseTime = time.Since(start).Milliseconds()

	log.Debug().
		Str("url", rawURL).
		Int("status", pageData.StatusCode).
		Int64("response_time_ms", pageData.ResponseTime).
		Int("bytes", len(pageData.HTML)).
		Msg("Fetch completed")

	return pageData, nil
}

func (s *Scraper) fetchOnce(ctx context.Context, rawURL string) (*models.PageData, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	var proxyURL string
	if s.opts.Proxies != nil {
		proxyURL = s.opts.Proxies.Next()
		ctx = context.WithValue(ctx, proxyKey{}, proxyURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeValidation, "failed to create request", errors.Join(engine.ErrInvalidURL, err))
	}

	req.Header.Set("User-Agent", s.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for key, value := range s.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if proxyURL != "" {
			s.opts.Proxies.MarkFailed(proxyURL)
		}
		return nil, engine.WrapTransportError(rawURL, err)
	}
	defer resp.Body.Close()

	if proxyURL != "" {
		s.opts.Proxies.MarkHealthy(proxyURL)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		httpErr := retry.NewHTTPError(resp.StatusCode, resp.Status, resp.Header.Get("Retry-After"))
		return nil, engine.NewEngineError(engine.ErrCodeServerError, "server returned an error status", errors.Join(engine.ErrServerError, httpErr)).
			WithStatus(resp.StatusCode).
			WithDetail("url", rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.opts.MaxBodyBytes+1))
	if err != nil {
		return nil, engine.WrapTransportError(rawURL, err)
	}
	if int64(len(body)) > s.opts.MaxBodyBytes {
		return nil, engine.NewEngineError(engine.ErrCodeNetworkError, "response exceeds size limit", engine.ErrBodyTooLarge).
			WithStatus(resp.StatusCode).
			WithDetail("max_bytes", s.opts.MaxBodyBytes)
	}

	pageData := &models.PageData{
		URL:        rawURL,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		HTML:       string(body),
		Headers:    make(map[string]string),
		Metadata:   make(map[string]string),
		Backend:    s.Name(),
		FetchedAt:  time.Now(),
	}
	for key, values := range resp.Header {
		if len(values) > 0 {
			pageData.Headers[key] = values[0]
		}
	}

	return pageData, nil
}

type proxyKey struct{}

// proxyFromContext routes a request through the proxy chosen for it, falling
// back to the environment configuration.
func proxyFromContext(req *http.Request) (*url.URL, error) {
	if p, ok := req.Context().Value(proxyKey{}).(string); ok && p != "" {
		return url.Parse(p)
	}
	return http.ProxyFromEnvironment(req)
}
