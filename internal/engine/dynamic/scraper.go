// internal/engine/dynamic/scraper.go
package dynamic

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/seocrawl/internal/engine"
	"github.com/law-makers/seocrawl/internal/ratelimit"
	"github.com/law-makers/seocrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

const (
	ViewportWidth  = 1920
	ViewportHeight = 1080

	DefaultTimeout     = 30 * time.Second
	DefaultIdleTimeout = 10 * time.Second
)

// Options configures the rendering backend
type Options struct {
	Timeout     time.Duration
	IdleTimeout time.Duration
	UserAgent   string
	ChromePath  string
	Headless    bool
	Proxy       string
}

// Scraper renders pages in headless Chrome. Each Start launches a dedicated
// browser that lives until the session is closed.
type Scraper struct {
	limiter ratelimit.RateLimiter
	opts    Options
}

// New creates a rendering backend
func New(lim ratelimit.RateLimiter, opts Options) *Scraper {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	return &Scraper{limiter: lim, opts: opts}
}

// Name returns the name of this backend
func (d *Scraper) Name() string {
	return "dynamic"
}

// Available reports whether a Chrome executable can be found
func (d *Scraper) Available() bool {
	return FindChrome(d.opts.ChromePath) != ""
}

// Start launches a browser for one crawl
func (d *Scraper) Start(ctx context.Context) (engine.Session, error) {
	chromePath := FindChrome(d.opts.ChromePath)
	if chromePath == "" {
		return nil, engine.NewEngineError(engine.ErrCodeStartup, "cannot launch rendering backend", engine.ErrBrowserNotFound)
	}

	b, err := launchBrowser(browserConfig{
		ChromePath: chromePath,
		UserAgent:  d.opts.UserAgent,
		Proxy:      d.opts.Proxy,
		Headless:   d.opts.Headless,
	})
	if err != nil {
		return nil, err
	}

	return &session{scraper: d, browser: b}, nil
}

type session struct {
	scraper *Scraper
	browser *browser
}

func (s *session) Close() error {
	return s.browser.Close()
}

// Fetch navigates a fresh tab to url, waits for the network to go idle and
// returns the rendered DOM.
func (s *session) Fetch(ctx context.Context, url string) (*models.PageData, error) {
	d := s.scraper
	start := time.Now()

	log.Debug().
		Str("url", url).
		Str("backend", d.Name()).
		Msg("Starting fetch")

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx, url); err != nil {
			return nil, engine.WrapTransportError(url, err)
		}
	}

	tabCtx, closeTab, err := s.browser.tab(ctx)
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, "no browser available", errors.Join(engine.ErrBrowserCrash, err))
	}
	defer closeTab()
	tabCtx, cancel := context.WithTimeout(tabCtx, d.opts.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	pageData := &models.PageData{
		URL:       url,
		Headers:   make(map[string]string),
		Metadata:  make(map[string]string),
		Backend:   d.Name(),
		FetchedAt: time.Now(),
	}

	var (
		mu         sync.Mutex
		statusCode int64
		finalURL   string
		navigating atomic.Bool
	)
	idle := make(chan struct{}, 1)

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *network.EventResponseReceived:
			if ev.Type != network.ResourceTypeDocument {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if statusCode != 0 {
				return
			}
			statusCode = ev.Response.Status
			finalURL = ev.Response.URL
			for key, value := range ev.Response.Headers {
				if strValue, ok := value.(string); ok {
					pageData.Headers[key] = strValue
				}
			}
		case *page.EventLifecycleEvent:
			if ev.Name == "networkIdle" && navigating.Load() {
				select {
				case idle <- struct{}{}:
				default:
				}
			}
		}
	})

	var htmlContent, title string

	err = chromedp.Run(tabCtx,
		network.Enable(),
		page.SetLifecycleEventsEnabled(true),
		chromedp.EmulateViewport(ViewportWidth, ViewportHeight),
		chromedp.ActionFunc(func(ctx context.Context) error {
			navigating.Store(true)
			return nil
		}),
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return waitForNetworkIdle(ctx, idle, d.opts.IdleTimeout)
		}),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(tabCtx.Err(), context.DeadlineExceeded) {
			return nil, engine.NewEngineError(engine.ErrCodeTimeout, "rendering timed out", errors.Join(engine.ErrTimeout, err)).
				WithDetail("url", url)
		}
		return nil, engine.NewEngineError(engine.ErrCodeNetworkError, "navigation failed", errors.Join(engine.ErrNetworkError, err)).
			WithDetail("url", url)
	}

	mu.Lock()
	pageData.StatusCode = int(statusCode)
	pageData.FinalURL = finalURL
	mu.Unlock()

	if pageData.StatusCode >= 500 {
		return nil, engine.NewEngineError(engine.ErrCodeServerError, "server returned an error status", engine.ErrServerError).
			WithStatus(pageData.StatusCode).
			WithDetail("url", url)
	}

	pageData.HTML = htmlContent
	pageData.Metadata["title"] = title
	pageData.ResponseTime = time.Since(start).Milliseconds()

	log.Debug().
		Str("url", url).
		Int("status", pageData.StatusCode).
		Int64("response_time_ms", pageData.ResponseTime).
		Int("bytes", len(htmlContent)).
		Msg("Fetch completed")

	return pageData, nil
}

// waitForNetworkIdle blocks until the page reports network idle. Pages that
// keep long-polling never go idle, so the wait gives up after limit and the
// DOM is read as it is.
func waitForNetworkIdle(ctx context.Context, idle <-chan struct{}, limit time.Duration) error {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case <-idle:
	case <-timer.C:
		log.Debug().Dur("limit", limit).Msg("Network idle not reached, reading DOM")
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
