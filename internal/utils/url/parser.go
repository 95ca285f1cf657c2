package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL performs comprehensive URL validation
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" || parsed.Hostname() == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// ResolveURL resolves a possibly-relative href against a base URL and returns a string.
// The href is returned unchanged when either side cannot be parsed.
func ResolveURL(base, href string) string {
	resolved, err := Resolve(base, href)
	if err != nil {
		return href
	}
	return resolved.String()
}

// Resolve resolves href against base, failing on malformed input
func Resolve(base, href string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, err
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	return baseURL.ResolveReference(ref), nil
}

// defaultPorts are dropped from origins so https://example.com:443 and
// https://example.com compare equal.
var defaultPorts = map[string]string{"http": "80", "https": "443"}

// Origin returns scheme://host[:port] in lower case, without the scheme's
// default port.
func Origin(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	if port := u.Port(); port != "" && port == defaultPorts[scheme] {
		host = strings.ToLower(u.Hostname())
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
	}
	return scheme + "://" + host
}

// SameOrigin reports whether a and b share scheme, host and port
func SameOrigin(a, b *url.URL) bool {
	return Origin(a) == Origin(b)
}

// Normalize returns the de-duplication key for a URL: lower-cased scheme and
// host, no query, no fragment, and "/" for an empty path.
func Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return NormalizeURL(u)
}

// NormalizeURL is Normalize for an already parsed URL
func NormalizeURL(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return Origin(u) + path
}
