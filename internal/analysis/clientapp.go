package analysis

import "strings"

// Client-side crash screens render as a normal 200 page. They are recognised
// by a framework error message together with a bundler module path in the
// same markup. The lists are an allowlist, not a general classifier.
var (
	frameworkErrorMarkers = []string{
		"Application error: a client-side exception has occurred",
		"Unhandled Runtime Error",
		"ChunkLoadError",
		"Minified React error",
	}
	modulePathMarkers = []string{
		"/_next/static/",
		"webpack-internal://",
		"node_modules/",
	}
)

// IsClientAppErrorPage reports whether markup is a client application error
// screen rather than real content.
func IsClientAppErrorPage(markup string) bool {
	return containsAny(markup, frameworkErrorMarkers) && containsAny(markup, modulePathMarkers)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
