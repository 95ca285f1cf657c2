package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/law-makers/seocrawl/internal/crawler"
	"github.com/law-makers/seocrawl/internal/engine"
	"github.com/law-makers/seocrawl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head><title>A reasonable page title</title></head>
<body><h1>Hi</h1><a href="/about">About</a></body></html>`

type stubBackend struct {
	fetches   atomic.Int32
	started   chan struct{}
	release   chan struct{}
	chain     bool
	block     bool
	cancelled atomic.Bool
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Start(ctx context.Context) (engine.Session, error) {
	return engine.SessionFunc(func(ctx context.Context, url string) (*models.PageData, error) {
		n := b.fetches.Add(1)
		if n == 1 && b.started != nil {
			close(b.started)
		}
		if b.release != nil {
			<-b.release
		}
		if b.block {
			<-ctx.Done()
			b.cancelled.Store(true)
			return nil, engine.WrapTransportError(url, ctx.Err())
		}
		html := page
		if b.chain {
			html = fmt.Sprintf(`<html><head><title>A reasonable page title</title></head><body><h1>Hi</h1><a href="/p%d">next</a></body></html>`, n)
		}
		return &models.PageData{URL: url, StatusCode: 200, HTML: html, Backend: "stub"}, nil
	}), nil
}

type stubFactory struct {
	backend *stubBackend
	mu      sync.Mutex
	modes   []models.ScraperMode
}

func (f *stubFactory) Crawler(mode models.ScraperMode, extra ...crawler.Option) (*crawler.Crawler, error) {
	f.mu.Lock()
	f.modes = append(f.modes, mode)
	f.mu.Unlock()
	return crawler.New(f.backend, extra...), nil
}

func postCrawl(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/crawl", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCrawlReturnsReport(t *testing.T) {
	f := &stubFactory{backend: &stubBackend{}}
	h := New(f, models.CrawlOptions{MaxPages: 5}).Handler()

	rec := postCrawl(t, h, `{"url":"https://example.com/","mode":"auto"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var rep models.SEOReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "https://example.com/", rep.URL)
	assert.Len(t, rep.Pages, 1)
	assert.Equal(t, models.CrawlCompleted, rep.CrawlVerification.Status)
	assert.Equal(t, []models.ScraperMode{models.ModeAuto}, f.modes)
}

func TestCrawlMultiPageUsesDefaults(t *testing.T) {
	f := &stubFactory{backend: &stubBackend{}}
	h := New(f, models.CrawlOptions{MaxPages: 2}).Handler()

	rec := postCrawl(t, h, `{"url":"https://example.com/","options":{"multiPage":true}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var rep models.SEOReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Len(t, rep.Pages, 2)
	assert.Equal(t, []models.ScraperMode{models.ModeStatic}, f.modes)
}

func TestCrawlBadRequests(t *testing.T) {
	h := New(&stubFactory{backend: &stubBackend{}}, models.CrawlOptions{}).Handler()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"url":`},
		{"missing url", `{"mode":"static"}`},
		{"unknown mode", `{"url":"https://example.com/","mode":"turbo"}`},
		{"invalid url", `{"url":"ftp://example.com/"}`},
		{"relative url", `{"url":"/just/a/path"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postCrawl(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestCrawlBodyTooLarge(t *testing.T) {
	h := New(&stubFactory{backend: &stubBackend{}}, models.CrawlOptions{}).Handler()

	big := `{"url":"https://example.com/","pad":"` + strings.Repeat("x", MaxRequestBytes) + `"}`
	rec := postCrawl(t, h, big)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCrawlMethodNotAllowed(t *testing.T) {
	h := New(&stubFactory{backend: &stubBackend{}}, models.CrawlOptions{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/crawl", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestIdenticalRequestsShareOneCrawl(t *testing.T) {
	backend := &stubBackend{started: make(chan struct{}), release: make(chan struct{})}
	srv := httptest.NewServer(New(&stubFactory{backend: backend}, models.CrawlOptions{}).Handler())
	defer srv.Close()

	body := `{"url":"https://example.com/"}`
	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := http.Post(srv.URL+"/api/crawl", "application/json", bytes.NewBufferString(body))
			if err != nil {
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			codes[i] = resp.StatusCode
		}(i)
		if i == 0 {
			<-backend.started
		}
	}

	time.Sleep(100 * time.Millisecond)
	close(backend.release)
	wg.Wait()

	assert.Equal(t, []int{http.StatusOK, http.StatusOK}, codes)
	assert.Equal(t, int32(1), backend.fetches.Load())
}

func TestHealthAndMetrics(t *testing.T) {
	h := New(&stubFactory{backend: &stubBackend{}}, models.CrawlOptions{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"OK"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(&stubFactory{backend: &stubBackend{}}, models.CrawlOptions{}).ListenAndServe(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestCrawlPageCeilingIsCapped(t *testing.T) {
	backend := &stubBackend{chain: true}
	h := New(&stubFactory{backend: backend}, models.CrawlOptions{MaxPages: 2}, WithMaxPages(3)).Handler()

	rec := postCrawl(t, h, `{"url":"https://example.com/","options":{"multiPage":true,"forceFullCrawl":true,"maxPages":1000000}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rep models.SEOReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Len(t, rep.Pages, 3)
	assert.Equal(t, int32(3), backend.fetches.Load())
}

func TestCrawlDeadline(t *testing.T) {
	backend := &stubBackend{block: true}
	h := New(&stubFactory{backend: backend}, models.CrawlOptions{}, WithCrawlTimeout(100*time.Millisecond)).Handler()

	start := time.Now()
	rec := postCrawl(t, h, `{"url":"https://example.com/"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, backend.cancelled.Load())

	var rep models.SEOReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	require.Len(t, rep.Pages, 1)
	assert.NotEmpty(t, rep.Pages[0].Error)
}

func TestCrawlCancelledWhenClientLeaves(t *testing.T) {
	backend := &stubBackend{block: true, started: make(chan struct{})}
	h := New(&stubFactory{backend: backend}, models.CrawlOptions{}).Handler()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/api/crawl", strings.NewReader(`{"url":"https://example.com/"}`)).WithContext(ctx)
	done := make(chan struct{})
	go func() {
		h.ServeHTTP(httptest.NewRecorder(), req)
		close(done)
	}()

	<-backend.started
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not return after the client left")
	}
	assert.Eventually(t, backend.cancelled.Load, 5*time.Second, 10*time.Millisecond)
}

func TestStopInterruptsRunningCrawls(t *testing.T) {
	backend := &stubBackend{block: true, started: make(chan struct{})}
	s := New(&stubFactory{backend: backend}, models.CrawlOptions{})
	h := s.Handler()

	recCh := make(chan *httptest.ResponseRecorder, 1)
	go func() { recCh <- postCrawl(t, h, `{"url":"https://example.com/"}`) }()

	<-backend.started
	s.stop()

	select {
	case rec := <-recCh:
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, backend.cancelled.Load())
	case <-time.After(5 * time.Second):
		t.Fatal("crawl kept running after stop")
	}
}
