// internal/engine/hybrid/detector.go
package hybrid

import (
	"strings"
)

// frameworkMarkers maps client frameworks to lower-case markup fingerprints
var frameworkMarkers = []struct {
	name    string
	markers []string
}{
	{"Next.js", []string{"__next_data__", "/_next/static/"}},
	{"Nuxt", []string{"__nuxt", "/_nuxt/"}},
	{"React", []string{"data-reactroot", "react-dom", "id=\"root\"></div>"}},
	{"Vue", []string{"data-v-app", "vue.global", "vue.runtime"}},
	{"Angular", []string{"ng-version", "ng-app", "angular.min.js"}},
	{"Svelte", []string{"__sveltekit", "svelte-"}},
	{"Ember", []string{"ember-application", "ember.min.js"}},
}

// DetectJavaScriptFramework detects common client-side frameworks in HTML
func DetectJavaScriptFramework(html string) string {
	html = strings.ToLower(html)

	for _, fw := range frameworkMarkers {
		for _, marker := range fw.markers {
			if strings.Contains(html, marker) {
				return fw.name
			}
		}
	}

	return "Unknown"
}

// NeedsJavaScript determines if a page likely needs a browser to render
func NeedsJavaScript(html string, scriptCount int) bool {
	if scriptCount == 0 {
		return false
	}

	if DetectJavaScriptFramework(html) != "Unknown" {
		return true
	}

	// An empty shell with scripts is typical of SPAs
	lower := strings.ToLower(html)
	return strings.Count(lower, "<div") < 3 && strings.Count(lower, "<p") == 0
}
