package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel              = "info"
	DefaultJSONLog               = false
	DefaultUserAgent             = "Mozilla/5.0 (compatible; seocrawl/1.0; +https://github.com/law-makers/seocrawl)"
	DefaultHTTPTimeout           = 30 * time.Second
	DefaultRetries               = 0
	DefaultMaxBodyBytes          = 10 * 1024 * 1024 // 10MB
	DefaultMaxRedirects          = 5
	DefaultStaticRateLimitRPS    = 5.0
	DefaultStaticRateLimitBurst  = 10
	DefaultDynamicRateLimitRPS   = 3.0
	DefaultDynamicRateLimitBurst = 5
	DefaultBrowserHeadless       = true
	DefaultIdleTimeout           = 10 * time.Second
	DefaultMode                  = "static"
	DefaultMaxPages              = 20
	DefaultMaxLinksPerPage       = 6
	DefaultRespectRobots         = false
	DefaultStoreType             = "none"
	DefaultStoreTTL              = 30 * time.Minute
	DefaultStoreMaxSizeBytes     = 100 * 1024 * 1024 // 100MB
	DefaultServerAddr            = ":8080"
	DefaultServerMaxPages        = 200
	DefaultCrawlTimeout          = 5 * time.Minute
	DefaultConcurrency           = 0 // auto
	DefaultWeightHigh            = 20
	DefaultWeightMedium          = 10
	DefaultWeightLow             = 5

	// EnvPrefix namespaces environment overrides, e.g. SEOCRAWL_MAX_PAGES
	EnvPrefix = "SEOCRAWL"
)
