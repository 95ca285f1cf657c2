package reqctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type key int

const crawlKey key = 0

// CrawlContext identifies one crawl invocation across log lines and errors
type CrawlContext struct {
	CrawlID   string
	Target    string
	StartTime time.Time
}

// WithCrawl attaches a fresh crawl identity to ctx. An identity already
// present is kept, so a caller can choose the ID.
func WithCrawl(ctx context.Context, target string) context.Context {
	if cc, ok := ctx.Value(crawlKey).(*CrawlContext); ok && cc.Target == target {
		return ctx
	}
	return context.WithValue(ctx, crawlKey, &CrawlContext{
		CrawlID:   generateID(),
		Target:    target,
		StartTime: time.Now(),
	})
}

// WithCrawlID attaches an identity with a caller chosen ID
func WithCrawlID(ctx context.Context, id, target string) context.Context {
	return context.WithValue(ctx, crawlKey, &CrawlContext{
		CrawlID:   id,
		Target:    target,
		StartTime: time.Now(),
	})
}

// FromContext returns the crawl identity of ctx, or a placeholder
func FromContext(ctx context.Context) *CrawlContext {
	if cc, ok := ctx.Value(crawlKey).(*CrawlContext); ok {
		return cc
	}
	return &CrawlContext{
		CrawlID:   "unknown",
		StartTime: time.Now(),
	}
}

// Logger returns the global logger tagged with the crawl identity
func Logger(ctx context.Context) zerolog.Logger {
	cc := FromContext(ctx)
	return log.With().Str("crawl_id", cc.CrawlID).Str("target", cc.Target).Logger()
}

func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// CrawlError tags an error with the crawl it happened in
type CrawlError struct {
	CrawlID string
	Err     error
}

func (e *CrawlError) Error() string {
	return fmt.Sprintf("[crawl %s] %v", e.CrawlID, e.Err)
}

func (e *CrawlError) Unwrap() error {
	return e.Err
}

// Wrap tags err with the crawl identity of ctx; nil stays nil
func Wrap(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &CrawlError{CrawlID: FromContext(ctx).CrawlID, Err: err}
}
