// Package app wires configuration into the backends, store and crawler shared
// by every command.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/law-makers/seocrawl/internal/config"
	"github.com/law-makers/seocrawl/internal/crawler"
	"github.com/law-makers/seocrawl/internal/engine"
	"github.com/law-makers/seocrawl/internal/engine/dynamic"
	"github.com/law-makers/seocrawl/internal/engine/hybrid"
	"github.com/law-makers/seocrawl/internal/engine/static"
	"github.com/law-makers/seocrawl/internal/proxy"
	"github.com/law-makers/seocrawl/internal/ratelimit"
	"github.com/law-makers/seocrawl/internal/store"
	"github.com/law-makers/seocrawl/internal/utils/headers"
	"github.com/law-makers/seocrawl/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config     *config.Config
	Logger     *zerolog.Logger
	Store      store.Store
	Proxies    *proxy.Pool
	HTTPClient *http.Client

	Static  *static.Scraper
	Dynamic *dynamic.Scraper
	Auto    *hybrid.Scraper

	startTime time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Opens the markup store, if one is configured
//   - Creates the per-host rate limiter and proxy rotation
//   - Creates the static, rendering and auto backends
//
// Browsers are not launched here; the rendering backend starts one per crawl.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := setupLogger(cfg)

	pageStore, err := store.NewFromConfig(cfg.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	logger.Debug().
		Str("type", cfg.StoreType).
		Dur("ttl", cfg.StoreTTL).
		Msg("Markup store initialized")

	proxies, err := proxy.Parse(cfg.Proxies)
	if err != nil {
		return nil, err
	}
	proxyPool := proxy.NewPool(proxies)

	extraHeaders, err := headers.Parse(cfg.Headers)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.NewHostLimiter(cfg.StaticRateLimitRPS, cfg.StaticRateLimitBurst)
	renderLimiter := ratelimit.NewHostLimiter(cfg.DynamicRateLimitRPS, cfg.DynamicRateLimitBurst)
	logger.Debug().
		Float64("static_rps", cfg.StaticRateLimitRPS).
		Float64("dynamic_rps", cfg.DynamicRateLimitRPS).
		Int("proxies", proxyPool.Len()).
		Msg("Rate limiters initialized")

	staticOpts := static.Options{
		Timeout:      cfg.HTTPTimeout,
		UserAgent:    cfg.UserAgent,
		MaxBodyBytes: cfg.MaxBodyBytes,
		MaxRedirects: cfg.MaxRedirects,
		Headers:      extraHeaders,
		Retries:      cfg.Retries,
		Proxies:      proxyPool,
	}
	httpClient := static.NewClient(staticOpts)
	staticScraper := static.New(limiter, httpClient, staticOpts)

	// The browser gets the first proxy only; chrome takes a single proxy per process.
	dynamicScraper := dynamic.New(renderLimiter, dynamic.Options{
		Timeout:     cfg.HTTPTimeout,
		IdleTimeout: cfg.IdleTimeout,
		UserAgent:   cfg.UserAgent,
		ChromePath:  cfg.ChromePath,
		Headless:    cfg.BrowserHeadless,
		Proxy:       proxyPool.Next(),
	})

	var renderer engine.Backend
	if dynamicScraper.Available() {
		renderer = dynamicScraper
	} else {
		logger.Debug().Msg("Chrome not found, auto mode will analyse raw markup only")
	}
	autoScraper := hybrid.New(staticScraper, renderer)

	app := &Application{
		Config:     cfg,
		Logger:     &logger,
		Store:      pageStore,
		Proxies:    proxyPool,
		HTTPClient: httpClient,
		Static:     staticScraper,
		Dynamic:    dynamicScraper,
		Auto:       autoScraper,
		startTime:  time.Now(),
	}

	logger.Debug().Msg("Application initialized successfully")
	return app, nil
}

func setupLogger(cfg *config.Config) zerolog.Logger {
	// info stays quiet on the console unless -v is used
	level := zerolog.WarnLevel
	switch cfg.LogLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	if cfg.Quiet {
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = os.Stderr
	if !cfg.JSONLog {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	log.Logger = log.Output(w).With().Timestamp().Logger()
	return log.Logger
}

// Backend returns the fetch backend for mode
func (a *Application) Backend(mode models.ScraperMode) (engine.Backend, error) {
	switch mode {
	case models.ModeStatic, "":
		return a.Static, nil
	case models.ModeSPA:
		return a.Dynamic, nil
	case models.ModeAuto:
		return a.Auto, nil
	}
	return nil, fmt.Errorf("unknown mode %q", mode)
}

// Crawler builds a crawler over the backend for mode with the shared store
// and weights. Extra options are applied last.
func (a *Application) Crawler(mode models.ScraperMode, extra ...crawler.Option) (*crawler.Crawler, error) {
	backend, err := a.Backend(mode)
	if err != nil {
		return nil, err
	}
	opts := []crawler.Option{
		crawler.WithStore(a.Store),
		crawler.WithRobotsClient(a.HTTPClient, a.Config.UserAgent),
		crawler.WithMaxCrawlDelay(a.Config.HTTPTimeout),
		crawler.WithWeights(a.Config.Weights),
	}
	return crawler.New(backend, append(opts, extra...)...), nil
}

// CrawlOptions returns the configured defaults for a crawl
func (a *Application) CrawlOptions() models.CrawlOptions {
	return models.CrawlOptions{
		MaxPages:        a.Config.MaxPages,
		MaxLinksPerPage: a.Config.MaxLinksPerPage,
		RespectRobots:   a.Config.RespectRobots,
	}
}

// Close releases the store and idle connections. Sessions own their
// browsers, so nothing else needs shutting down.
func (a *Application) Close(ctx context.Context) error {
	var err error
	if a.Store != nil {
		if err = a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing store")
		}
	}
	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return err
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
