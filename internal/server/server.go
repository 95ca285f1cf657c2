// Package server exposes crawls over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/law-makers/seocrawl/internal/crawler"
	"github.com/law-makers/seocrawl/internal/engine"
	"github.com/law-makers/seocrawl/pkg/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	// MaxRequestBytes caps the crawl request body
	MaxRequestBytes = 1 << 20

	// DefaultCrawlTimeout bounds one crawl started by a request
	DefaultCrawlTimeout = 5 * time.Minute

	shutdownTimeout = 10 * time.Second
)

// CrawlerFactory builds a crawler for a fetch mode
type CrawlerFactory interface {
	Crawler(mode models.ScraperMode, extra ...crawler.Option) (*crawler.Crawler, error)
}

// CrawlRequest is the body of POST /api/crawl
type CrawlRequest struct {
	URL     string              `json:"url"`
	Mode    string              `json:"mode,omitempty"`
	Options models.CrawlOptions `json:"options"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server answers crawl requests. Identical requests in flight at the same
// time share one crawl, which is cancelled once every caller has gone, when
// its deadline passes, or when the server shuts down.
type Server struct {
	factory      CrawlerFactory
	defaults     models.CrawlOptions
	maxPages     int
	crawlTimeout time.Duration

	flight singleflight.Group
	mu     sync.Mutex
	calls  map[string]*call

	base      context.Context
	stop      context.CancelFunc
	startTime time.Time
}

// call is one shared crawl and the number of requests waiting on it
type call struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Option configures a Server
type Option func(*Server)

// WithMaxPages caps the page ceiling a request may ask for
func WithMaxPages(n int) Option {
	return func(s *Server) { s.maxPages = n }
}

// WithCrawlTimeout bounds how long one crawl may run
func WithCrawlTimeout(d time.Duration) Option {
	return func(s *Server) { s.crawlTimeout = d }
}

// New creates a Server. defaults fill MaxPages and MaxLinksPerPage when a
// request leaves them unset.
func New(factory CrawlerFactory, defaults models.CrawlOptions, opts ...Option) *Server {
	base, stop := context.WithCancel(context.Background())
	s := &Server{
		factory:      factory,
		defaults:     defaults,
		crawlTimeout: DefaultCrawlTimeout,
		calls:        make(map[string]*call),
		base:         base,
		stop:         stop,
		startTime:    time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/crawl", s.handleCrawl)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBytes)

	var req CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	mode, ok := models.ParseMode(req.Mode)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", req.Mode))
		return
	}
	opts := s.withDefaults(req.Options)

	raw, _ := json.Marshal(struct {
		URL     string
		Mode    models.ScraperMode
		Options models.CrawlOptions
	}{req.URL, mode, opts})
	key := string(raw)

	c := s.join(key)
	ch := s.flight.DoChan(key, func() (any, error) {
		cr, err := s.factory.Crawler(mode)
		if err != nil {
			return nil, err
		}
		return cr.Crawl(c.ctx, req.URL, opts)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
		s.leave(key, c)
	case <-r.Context().Done():
		s.leave(key, c)
		log.Debug().Str("url", req.URL).Msg("Client went away before the crawl finished")
		return
	}
	v, err, shared := res.Val, res.Err, res.Shared

	if err != nil {
		if errors.Is(err, engine.ErrInvalidURL) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Str("url", req.URL).Msg("Crawl request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rep := v.(*models.SEOReport)
	log.Info().
		Str("url", req.URL).
		Str("mode", string(mode)).
		Bool("shared", shared).
		Int("overall_score", rep.OverallScore).
		Msg("Crawl request served")

	writeJSON(w, http.StatusOK, rep)
}

// join registers a waiter on the shared crawl for key, creating its
// context on first use.
func (s *Server) join(key string) *call {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[key]
	if !ok {
		ctx, cancel := context.WithTimeout(s.base, s.crawlTimeout)
		c = &call{ctx: ctx, cancel: cancel}
		s.calls[key] = c
	}
	c.waiters++
	return c
}

// leave drops a waiter. The last one out cancels the crawl.
func (s *Server) leave(key string, c *call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.waiters--
	if c.waiters > 0 {
		return
	}
	c.cancel()
	if s.calls[key] == c {
		delete(s.calls, key)
	}
}

func (s *Server) withDefaults(opts models.CrawlOptions) models.CrawlOptions {
	if opts.MaxPages <= 0 {
		opts.MaxPages = s.defaults.MaxPages
	}
	if s.maxPages > 0 && opts.MaxPages > s.maxPages {
		opts.MaxPages = s.maxPages
	}
	if opts.MaxLinksPerPage <= 0 {
		opts.MaxLinksPerPage = s.defaults.MaxLinksPerPage
	}
	opts.RespectRobots = opts.RespectRobots || s.defaults.RespectRobots
	return opts
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status    string    `json:"status"`
		Uptime    string    `json:"uptime"`
		StartTime time.Time `json:"start_time"`
	}{
		Status:    "OK",
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		StartTime: s.startTime,
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then interrupts
// running crawls and shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", addr).Msg("HTTP crawl service listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Running crawls stop and answer with what they have so far.
	s.stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info().Msg("Shutting down HTTP crawl service")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
