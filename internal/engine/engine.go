package engine

import (
	"context"

	"github.com/law-makers/seocrawl/pkg/models"
)

// Backend is a fetch implementation that turns URLs into markup.
// A Backend is started once per crawl; the resulting Session owns any
// stateful resources (browser processes) and must be closed by the caller.
type Backend interface {
	// Name returns the name of the backend implementation
	Name() string

	// Start prepares a session scoped to a single crawl invocation
	Start(ctx context.Context) (Session, error)
}

// Session fetches pages for one crawl
type Session interface {
	// Fetch retrieves the markup of url. Responses with a status below 500
	// are returned as data; 5xx responses and transport failures are errors.
	Fetch(ctx context.Context, url string) (*models.PageData, error)

	// Close releases all resources held by the session
	Close() error
}

// SessionFunc adapts a fetch function to a Session with a no-op Close
type SessionFunc func(ctx context.Context, url string) (*models.PageData, error)

func (f SessionFunc) Fetch(ctx context.Context, url string) (*models.PageData, error) {
	return f(ctx, url)
}

func (f SessionFunc) Close() error { return nil }
