// Package crawler walks a single site breadth-first through a fetch backend
// and compiles what it finds into an SEO report.
package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/seocrawl/internal/analysis"
	"github.com/law-makers/seocrawl/internal/engine"
	"github.com/law-makers/seocrawl/internal/metrics"
	"github.com/law-makers/seocrawl/internal/ratelimit"
	"github.com/law-makers/seocrawl/internal/report"
	"github.com/law-makers/seocrawl/internal/reqctx"
	"github.com/law-makers/seocrawl/internal/robots"
	"github.com/law-makers/seocrawl/internal/store"
	urlutil "github.com/law-makers/seocrawl/internal/utils/url"
	"github.com/law-makers/seocrawl/pkg/models"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Progress is reported after every visited page
type Progress struct {
	URL      string
	Visited  int
	MaxPages int
	Queued   int
	Err      string
}

// Crawler runs crawls against one fetch backend. A Crawler holds no
// per-crawl state and is safe for concurrent use.
type Crawler struct {
	backend      engine.Backend
	store        store.Store
	robotsClient *http.Client
	userAgent    string
	maxDelay     time.Duration
	weights      report.Weights
	progress     func(Progress)
	now          func() time.Time
}

// Option configures a Crawler
type Option func(*Crawler)

// WithStore consults s before fetching and writes fetch results through to it
func WithStore(s store.Store) Option {
	return func(c *Crawler) { c.store = s }
}

// WithRobotsClient sets the client and user agent used to read robots.txt
func WithRobotsClient(client *http.Client, userAgent string) Option {
	return func(c *Crawler) {
		c.robotsClient = client
		c.userAgent = userAgent
	}
}

// DefaultMaxCrawlDelay caps a robots.txt Crawl-delay
const DefaultMaxCrawlDelay = 30 * time.Second

// WithMaxCrawlDelay caps the robots.txt Crawl-delay honoured between pages
func WithMaxCrawlDelay(d time.Duration) Option {
	return func(c *Crawler) { c.maxDelay = d }
}

// WithWeights overrides the technical score weights
func WithWeights(w report.Weights) Option {
	return func(c *Crawler) { c.weights = w }
}

// WithProgress registers a callback invoked after each page
func WithProgress(fn func(Progress)) Option {
	return func(c *Crawler) { c.progress = fn }
}

// New creates a Crawler over backend
func New(backend engine.Backend, opts ...Option) *Crawler {
	c := &Crawler{
		backend:  backend,
		weights:  report.DefaultWeights(),
		maxDelay: DefaultMaxCrawlDelay,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backend returns the name of the fetch backend
func (c *Crawler) Backend() string {
	return c.backend.Name()
}

// Crawl visits target and, in multi-page mode, same-origin pages reachable
// from it, up to the page ceiling of opts. The only error returned is for an
// invalid target; every other failure is recorded in the report.
func (c *Crawler) Crawl(ctx context.Context, target string, opts models.CrawlOptions) (*models.SEOReport, error) {
	if err := urlutil.ValidateURL(target); err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeValidation, "invalid target URL", errors.Join(engine.ErrInvalidURL, err)).
			WithDetail("url", target)
	}
	base, _ := url.Parse(target)

	ctx = reqctx.WithCrawl(ctx, target)
	logger := reqctx.Logger(ctx)

	in := report.Input{
		Target:   target,
		Start:    c.now(),
		Status:   models.CrawlRunning,
		Verified: opts.VerifyData,
		Backend:  c.backend.Name(),
		CrawlID:  reqctx.FromContext(ctx).CrawlID,
		Weights:  c.weights,
	}

	logger.Info().
		Str("backend", in.Backend).
		Int("max_pages", opts.EffectiveMaxPages()).
		Bool("multi_page", opts.MultiPage).
		Msg("Starting crawl")

	session, err := c.backend.Start(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start fetch backend")
		in.Status = models.CrawlFailed
		in.Error = err.Error()
		return c.finish(logger, in), nil
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close fetch session")
		}
	}()

	var (
		policy *robots.Policy
		pacer  *rate.Limiter
	)
	if opts.RespectRobots && opts.MultiPage {
		policy = robots.Load(ctx, c.robotsClient, target, c.userAgent)
		delay := time.Duration(policy.CrawlDelay() * float64(time.Second))
		if pacer = ratelimit.NewPacer(delay, c.maxDelay); pacer != nil {
			logger.Debug().Dur("delay", delay).Dur("max", c.maxDelay).Msg("Honouring robots.txt crawl delay")
		}
	}

	f := newFrontier(target)
	limit := opts.EffectiveMaxPages()
	linkCap := opts.LinksPerPage()

	for f.len() > 0 && f.visitedCount() < limit {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Int("visited", f.visitedCount()).Msg("Crawl interrupted")
			in.Interrupted = true
			break
		}

		next, ok := f.pop()
		if !ok {
			continue
		}
		if pacer != nil {
			if err := pacer.Wait(ctx); err != nil {
				logger.Warn().Err(err).Int("visited", f.visitedCount()).Msg("Crawl interrupted")
				in.Interrupted = true
				break
			}
		}
		in.Attempted++

		rec, doc, pageURL := c.visit(ctx, session, next, opts)
		in.Records = append(in.Records, rec)

		if !rec.IsError() && doc != nil && opts.MultiPage && f.visitedCount() < limit {
			added := 0
			for _, cand := range analysis.DiscoverLinks(doc, pageURL, base) {
				if linkCap > 0 && added >= linkCap {
					break
				}
				if f.seen(cand.Key) {
					continue
				}
				if !policy.Allowed(cand.URL) {
					logger.Debug().Str("url", cand.URL).Msg("Skipping URL disallowed by robots.txt")
					continue
				}
				f.push(cand.URL, cand.Key)
				added++
			}
		}

		if c.progress != nil {
			c.progress(Progress{
				URL:      next,
				Visited:  f.visitedCount(),
				MaxPages: limit,
				Queued:   f.len(),
				Err:      rec.Error,
			})
		}
	}

	in.Status = models.CrawlCompleted
	return c.finish(logger, in), nil
}

func (c *Crawler) finish(logger zerolog.Logger, in report.Input) *models.SEOReport {
	in.End = c.now()
	rep := report.Compile(in)

	metrics.CrawlsTotal.WithLabelValues(string(rep.CrawlVerification.Status)).Inc()
	metrics.OverallScore.Observe(float64(rep.OverallScore))

	logger.Info().
		Str("status", string(rep.CrawlVerification.Status)).
		Int("pages_successful", rep.CrawlVerification.PagesSuccessful).
		Int("pages_failed", rep.CrawlVerification.PagesFailed).
		Int("overall_score", rep.OverallScore).
		Dur("duration", in.End.Sub(in.Start)).
		Msg("Crawl finished")

	return rep
}

// visit fetches and extracts one page. It returns the record, the parsed
// document for link discovery (nil for error records), and the URL relative
// links on the page resolve against.
func (c *Crawler) visit(ctx context.Context, session engine.Session, pageURL string, opts models.CrawlOptions) (*models.PageRecord, *goquery.Document, string) {
	logger := reqctx.Logger(ctx).With().Str("url", pageURL).Logger()

	data, err := c.load(ctx, session, pageURL, opts)
	if err != nil {
		engine.LogError(logger.Warn(), err).Msg("Failed to fetch page")
		return errorRecord(pageURL, err, engine.StatusOf(err), ""), nil, pageURL
	}

	if analysis.IsClientAppErrorPage(data.HTML) {
		logger.Warn().Msg("Page is a client application error screen")
		err := engine.NewEngineError(engine.ErrCodeClientApp, "page rendered a client-side application error", engine.ErrClientAppError)
		return errorRecord(pageURL, err, data.StatusCode, ""), nil, pageURL
	}

	doc, err := analysis.Parse(data.HTML)
	var rec *models.PageRecord
	if err == nil {
		rec, err = analysis.ExtractPage(doc, data)
	} else {
		err = engine.NewEngineError(engine.ErrCodeParseError, "failed to parse markup", errors.Join(engine.ErrParseError, err))
	}
	if err != nil {
		engine.LogError(logger.Warn(), err).Msg("Failed to extract page")
		return errorRecord(pageURL, err, data.StatusCode, data.HTML), nil, pageURL
	}

	rec.URL = pageURL

	linkBase := pageURL
	if data.FinalURL != "" {
		linkBase = data.FinalURL
	}

	logger.Debug().
		Int("status", data.StatusCode).
		Int("issues", len(rec.Issues)).
		Int("internal_links", rec.Links.InternalCount).
		Msg("Page analyzed")

	return rec, doc, linkBase
}

// load returns page data from the store when allowed, else from the session
func (c *Crawler) load(ctx context.Context, session engine.Session, pageURL string, opts models.CrawlOptions) (*models.PageData, error) {
	logger := reqctx.Logger(ctx)
	backend := c.backend.Name()

	if c.store != nil && !opts.VerifyData {
		if data := c.loadStored(ctx, pageURL); data != nil {
			metrics.StoreHits.Inc()
			metrics.PagesFetched.WithLabelValues(backend, metrics.OutcomeCached).Inc()
			return data, nil
		}
	}

	start := time.Now()
	data, err := session.Fetch(ctx, pageURL)
	metrics.FetchDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PagesFetched.WithLabelValues(backend, metrics.OutcomeError).Inc()
		return nil, err
	}
	metrics.PagesFetched.WithLabelValues(backend, metrics.OutcomeOK).Inc()

	if c.store != nil && data.StatusCode < http.StatusBadRequest && data.HTML != "" {
		entry, err := store.EncodePage(data)
		if err == nil {
			_, err = c.store.Save(ctx, pageURL, entry)
		}
		if err != nil {
			logger.Debug().Err(err).Str("url", pageURL).Msg("Store write failed")
		}
	}
	return data, nil
}

// loadStored returns the saved fetch result for pageURL, or nil on a miss.
// Entries that cannot be decoded count as misses.
func (c *Crawler) loadStored(ctx context.Context, pageURL string) *models.PageData {
	logger := reqctx.Logger(ctx).With().Str("url", pageURL).Logger()

	entry, ok, err := c.store.Load(ctx, store.KeyFor(pageURL))
	if err != nil {
		logger.Debug().Err(err).Msg("Store lookup failed")
	}
	if !ok {
		return nil
	}
	data, err := store.DecodePage(entry)
	if err != nil {
		logger.Debug().Err(err).Msg("Ignoring unreadable store entry")
		return nil
	}
	return data
}

func errorRecord(pageURL string, err error, status int, html string) *models.PageRecord {
	return &models.PageRecord{
		URL:        pageURL,
		HTML:       html,
		Timestamp:  time.Now(),
		StatusCode: status,
		Error:      err.Error(),
		ErrorKind:  engine.ClassifyError(err),
	}
}
