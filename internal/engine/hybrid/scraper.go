package hybrid

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"github.com/law-makers/seocrawl/internal/engine"
	"github.com/law-makers/seocrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

// scriptBudget bounds the time spent evaluating inline scripts per page
const scriptBudget = 500 * time.Millisecond

// Scraper is the auto backend: it fetches over HTTP and only escalates to the
// renderer for pages that look like client-rendered applications.
type Scraper struct {
	base     engine.Backend
	renderer engine.Backend
}

// New creates an auto backend. renderer may be nil, in which case pages that
// need a browser are analysed from their raw markup.
func New(base, renderer engine.Backend) *Scraper {
	return &Scraper{base: base, renderer: renderer}
}

// Name returns the name of the backend
func (s *Scraper) Name() string {
	return "auto"
}

// Start starts the base backend. The renderer starts on first use.
func (s *Scraper) Start(ctx context.Context) (engine.Session, error) {
	base, err := s.base.Start(ctx)
	if err != nil {
		return nil, err
	}
	return &session{base: base, renderer: s.renderer}, nil
}

type session struct {
	base     engine.Session
	renderer engine.Backend
	rendered engine.Session
	failed   bool
}

func (s *session) Close() error {
	var err error
	if s.rendered != nil {
		err = s.rendered.Close()
	}
	if cerr := s.base.Close(); err == nil {
		err = cerr
	}
	return err
}

// Fetch retrieves url statically, then evaluates scripts or re-renders
// depending on what the markup looks like.
func (s *session) Fetch(ctx context.Context, url string) (*models.PageData, error) {
	data, err := s.base.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(data.HTML))
	if err != nil {
		return data, nil
	}

	strategy := DetermineStrategy(data.HTML, doc)
	log.Debug().Str("url", url).Str("strategy", strategy.String()).Msg("Auto strategy selected")

	switch strategy {
	case StrategyDynamic:
		if rendered := s.render(ctx, url); rendered != nil {
			data = rendered
		}
	case StrategyHybrid:
		executeScripts(data, doc)
	}

	if data.Metadata == nil {
		data.Metadata = make(map[string]string)
	}
	data.Metadata["strategy"] = strategy.String()
	return data, nil
}

// render fetches url through the renderer, returning nil when no renderer
// is usable. Failures keep the static result.
func (s *session) render(ctx context.Context, url string) *models.PageData {
	if s.renderer == nil || s.failed {
		return nil
	}

	if s.rendered == nil {
		rs, err := s.renderer.Start(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Renderer unavailable, using static markup")
			s.failed = true
			return nil
		}
		s.rendered = rs
	}

	data, err := s.rendered.Fetch(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Rendering failed, using static markup")
		return nil
	}
	return data
}

// executeScripts runs inline scripts in a bare VM and records the data
// globals they define in Metadata under "js:<name>".
func executeScripts(data *models.PageData, doc *goquery.Document) {
	vm := goja.New()

	vm.Set("window", vm.GlobalObject())
	vm.Set("self", vm.GlobalObject())
	vm.Set("document", map[string]interface{}{
		"location": map[string]interface{}{"href": data.URL},
	})
	vm.Set("location", map[string]interface{}{"href": data.URL})
	noop := func(call goja.FunctionCall) goja.Value { return goja.Undefined() }
	vm.Set("console", map[string]interface{}{"log": noop, "error": noop, "warn": noop})

	timer := time.AfterFunc(scriptBudget, func() {
		vm.Interrupt("script budget exceeded")
	})
	defer timer.Stop()

	doc.Find("script").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if _, external := sel.Attr("src"); external {
			return true
		}
		if t, ok := sel.Attr("type"); ok && t != "" && !strings.Contains(t, "javascript") {
			return true
		}

		if _, err := vm.RunString(sel.Text()); err != nil {
			// Most scripts touch the DOM and fail here
			if _, interrupted := err.(*goja.InterruptedError); interrupted {
				return false
			}
		}
		return true
	})

	if data.Metadata == nil {
		data.Metadata = make(map[string]string)
	}
	for _, key := range vm.GlobalObject().Keys() {
		if isStandardGlobal(key) {
			continue
		}
		val := vm.Get(key)
		if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
			continue
		}
		if _, isFunc := goja.AssertFunction(val); isFunc {
			continue
		}
		data.Metadata["js:"+key] = fmt.Sprintf("%v", val.Export())
	}
}

func isStandardGlobal(key string) bool {
	switch key {
	case "window", "self", "document", "location", "console":
		return true
	}
	return false
}
