package dynamic

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/law-makers/seocrawl/internal/engine"
	"github.com/rs/zerolog/log"
)

// browserConfig is what a crawl needs to launch Chrome.
type browserConfig struct {
	ChromePath string
	UserAgent  string
	Proxy      string
	Headless   bool
}

// chromeFlags returns the exec allocator flags for cfg. Audits render the
// page the way a desktop visitor would see it, so automation hints and
// background chatter are switched off.
func chromeFlags(cfg browserConfig) []chromedp.ExecAllocatorOption {
	headless := chromedp.Flag("headless", false)
	if cfg.Headless {
		headless = chromedp.Flag("headless", "new")
	}

	flags := []chromedp.ExecAllocatorOption{
		chromedp.ExecPath(cfg.ChromePath),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		headless,
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(ViewportWidth, ViewportHeight),
	}
	for _, name := range []string{
		"disable-gpu",
		"no-sandbox",
		"disable-dev-shm-usage",
		"disable-extensions",
		"disable-background-networking",
		"disable-sync",
		"disable-translate",
		"mute-audio",
		"ignore-certificate-errors",
	} {
		flags = append(flags, chromedp.Flag(name, true))
	}
	flags = append(flags, chromedp.Flag("disable-blink-features", "AutomationControlled"))

	if cfg.Proxy != "" {
		flags = append(flags, chromedp.ProxyServer(cfg.Proxy))
	}
	return flags
}

// browser is the Chrome process behind one crawl session. Pages are
// rendered one at a time in fresh tabs.
type browser struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// launchBrowser starts Chrome and waits until it answers.
func launchBrowser(cfg browserConfig) (*browser, error) {
	log.Debug().Str("chrome", cfg.ChromePath).Bool("headless", cfg.Headless).Msg("Launching browser")

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), chromeFlags(cfg)...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	b := &browser{
		ctx: ctx,
		cancel: func() {
			cancel()
			allocCancel()
		},
	}

	// The first Run starts the process.
	if err := chromedp.Run(ctx, chromedp.Navigate("about:blank")); err != nil {
		b.cancel()
		return nil, engine.NewEngineError(engine.ErrCodeStartup, "failed to launch browser", err).
			WithDetail("chrome", cfg.ChromePath)
	}
	return b, nil
}

// tab opens a new tab. The returned release func closes the tab and must
// be called before the next tab is requested.
func (b *browser) tab(ctx context.Context) (context.Context, func(), error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, nil, fmt.Errorf("browser is closed")
	}
	if err := ctx.Err(); err != nil {
		b.mu.Unlock()
		return nil, nil, err
	}

	tabCtx, closeTab := chromedp.NewContext(b.ctx)
	return tabCtx, func() {
		closeTab()
		b.mu.Unlock()
	}, nil
}

// Close kills the Chrome process. Calling it again is a no-op.
func (b *browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		b.cancel()
		log.Debug().Msg("Browser closed")
	}
	return nil
}
