package hybrid

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy is how auto mode treats a statically fetched page.
type Strategy int

const (
	// StrategyStatic keeps the HTTP response as is.
	StrategyStatic Strategy = iota
	// StrategyHybrid keeps the HTTP response and evaluates its inline scripts.
	StrategyHybrid
	// StrategyDynamic re-fetches the page through the renderer.
	StrategyDynamic
)

var strategyNames = [...]string{"static", "hybrid", "dynamic"}

func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return "unknown"
	}
	return strategyNames[s]
}

// DetermineStrategy picks a strategy for the markup in doc. Pages without
// scripts stay static, app shells are rendered, and pages whose scripts are
// all external stay static since there is nothing to evaluate locally.
func DetermineStrategy(html string, doc *goquery.Document) Strategy {
	scripts := doc.Find("script")
	if NeedsJavaScript(html, scripts.Length()) {
		return StrategyDynamic
	}
	if inlineScripts(scripts) == 0 {
		return StrategyStatic
	}
	return StrategyHybrid
}

func inlineScripts(scripts *goquery.Selection) int {
	n := 0
	scripts.Each(func(_ int, s *goquery.Selection) {
		if _, external := s.Attr("src"); !external && strings.TrimSpace(s.Text()) != "" {
			n++
		}
	})
	return n
}
