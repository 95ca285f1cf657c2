package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/law-makers/seocrawl/internal/config"
	"github.com/law-makers/seocrawl/pkg/models"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *Application {
	t.Helper()
	cfg, err := config.Load(nil)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Quiet = true
	if mutate != nil {
		mutate(cfg)
	}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestBackendByMode(t *testing.T) {
	a := newTestApp(t, nil)

	tests := []struct {
		mode models.ScraperMode
		name string
	}{
		{models.ModeStatic, "static"},
		{"", "static"},
		{models.ModeSPA, "dynamic"},
		{models.ModeAuto, "auto"},
	}
	for _, tt := range tests {
		b, err := a.Backend(tt.mode)
		if err != nil {
			t.Fatalf("Backend(%q): %v", tt.mode, err)
		}
		if b.Name() != tt.name {
			t.Errorf("Backend(%q) = %s, want %s", tt.mode, b.Name(), tt.name)
		}
	}

	if _, err := a.Backend("turbo"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestNoStoreByDefault(t *testing.T) {
	a := newTestApp(t, nil)
	if a.Store != nil {
		t.Errorf("expected no store, got %T", a.Store)
	}
}

func TestMemoryStoreConfigured(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) { c.StoreType = "memory" })
	if a.Store == nil {
		t.Fatal("expected a memory store")
	}
}

func TestCrawlOptionsFromConfig(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) {
		c.MaxPages = 4
		c.MaxLinksPerPage = 2
		c.RespectRobots = true
	})
	opts := a.CrawlOptions()
	if opts.MaxPages != 4 || opts.MaxLinksPerPage != 2 || !opts.RespectRobots {
		t.Errorf("unexpected options: %+v", opts)
	}
}

func TestCrawlerEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>A reasonable page title</title>
<meta name="description" content="d"><link rel="canonical" href="/"></head>
<body><h1>Hello</h1></body></html>`))
	}))
	defer srv.Close()

	a := newTestApp(t, nil)
	c, err := a.Crawler(models.ModeStatic)
	if err != nil {
		t.Fatalf("Crawler: %v", err)
	}

	rep, err := c.Crawl(context.Background(), srv.URL, a.CrawlOptions())
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(rep.Pages) != 1 || rep.Pages[0].IsError() {
		t.Fatalf("unexpected pages: %+v", rep.Pages)
	}
	if rep.Pages[0].Score != 100 {
		t.Errorf("page score = %d, want 100", rep.Pages[0].Score)
	}
	if rep.CrawlVerification.Status != models.CrawlCompleted {
		t.Errorf("status = %s", rep.CrawlVerification.Status)
	}
}
