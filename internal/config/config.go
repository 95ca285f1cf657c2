package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/law-makers/seocrawl/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string `mapstructure:"log_level"`
	JSONLog  bool   `mapstructure:"json"`
	Quiet    bool   `mapstructure:"quiet"`

	// HTTP fetching
	HTTPTimeout  time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	Proxies      []string      `mapstructure:"proxy"`
	Headers      []string      `mapstructure:"headers"`
	Retries      int           `mapstructure:"retries"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	MaxRedirects int           `mapstructure:"max_redirects"`

	// Rate limiting
	StaticRateLimitRPS    float64 `mapstructure:"static_rps"`
	StaticRateLimitBurst  int     `mapstructure:"static_burst"`
	DynamicRateLimitRPS   float64 `mapstructure:"dynamic_rps"`
	DynamicRateLimitBurst int     `mapstructure:"dynamic_burst"`

	// Rendering
	ChromePath      string        `mapstructure:"chrome_path"`
	BrowserHeadless bool          `mapstructure:"headless"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`

	// Crawl
	Mode            string `mapstructure:"mode"`
	MaxPages        int    `mapstructure:"max_pages"`
	MaxLinksPerPage int    `mapstructure:"max_links_per_page"`
	RespectRobots   bool   `mapstructure:"respect_robots"`
	Concurrency     int    `mapstructure:"concurrency"`

	// Markup store
	StoreType         string        `mapstructure:"store"`
	StoreDir          string        `mapstructure:"store_dir"`
	RedisAddr         string        `mapstructure:"redis_addr"`
	StoreTTL          time.Duration `mapstructure:"store_ttl"`
	StoreMaxSizeBytes int64         `mapstructure:"store_max_bytes"`

	// Server
	ServerAddr     string        `mapstructure:"addr"`
	ServerMaxPages int           `mapstructure:"server_max_pages"`
	CrawlTimeout   time.Duration `mapstructure:"crawl_timeout"`

	// Scoring
	Weights report.Weights `mapstructure:"weights"`
}

// flagKeys maps CLI flag names to config keys. Flags missing from a
// command are skipped.
var flagKeys = map[string]string{
	"json":               "json",
	"quiet":              "quiet",
	"proxy":              "proxy",
	"timeout":            "timeout",
	"user-agent":         "user_agent",
	"retries":            "retries",
	"header":             "headers",
	"chrome-path":        "chrome_path",
	"mode":               "mode",
	"max-pages":          "max_pages",
	"max-links-per-page": "max_links_per_page",
	"respect-robots":     "respect_robots",
	"concurrency":        "concurrency",
	"store":              "store",
	"store-dir":          "store_dir",
	"redis-addr":         "redis_addr",
	"addr":               "addr",
	"server-max-pages":   "server_max_pages",
	"crawl-timeout":      "crawl_timeout",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("json", DefaultJSONLog)
	v.SetDefault("quiet", false)
	v.SetDefault("timeout", DefaultHTTPTimeout)
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("proxy", "")
	v.SetDefault("headers", []string{})
	v.SetDefault("retries", DefaultRetries)
	v.SetDefault("max_body_bytes", DefaultMaxBodyBytes)
	v.SetDefault("max_redirects", DefaultMaxRedirects)
	v.SetDefault("static_rps", DefaultStaticRateLimitRPS)
	v.SetDefault("static_burst", DefaultStaticRateLimitBurst)
	v.SetDefault("dynamic_rps", DefaultDynamicRateLimitRPS)
	v.SetDefault("dynamic_burst", DefaultDynamicRateLimitBurst)
	v.SetDefault("chrome_path", "")
	v.SetDefault("headless", DefaultBrowserHeadless)
	v.SetDefault("idle_timeout", DefaultIdleTimeout)
	v.SetDefault("mode", DefaultMode)
	v.SetDefault("max_pages", DefaultMaxPages)
	v.SetDefault("max_links_per_page", DefaultMaxLinksPerPage)
	v.SetDefault("respect_robots", DefaultRespectRobots)
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("store", DefaultStoreType)
	v.SetDefault("store_dir", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("store_ttl", DefaultStoreTTL)
	v.SetDefault("store_max_bytes", DefaultStoreMaxSizeBytes)
	v.SetDefault("addr", DefaultServerAddr)
	v.SetDefault("server_max_pages", DefaultServerMaxPages)
	v.SetDefault("crawl_timeout", DefaultCrawlTimeout)
	v.SetDefault("weights.high", DefaultWeightHigh)
	v.SetDefault("weights.medium", DefaultWeightMedium)
	v.SetDefault("weights.low", DefaultWeightLow)
}

// Load builds a Config from defaults, an optional YAML file (--config),
// SEOCRAWL_* environment variables and CLI flags, in increasing priority.
// Caller should pass the executing *cobra.Command so its flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}

		for name, key := range flagKeys {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cmd != nil {
		if f := cmd.Flags().Lookup("verbose"); f != nil && f.Value.String() == "true" {
			cfg.LogLevel = "debug"
		}
	}
	cfg.Proxies = splitList(cfg.Proxies)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// splitList flattens comma separated entries and drops blanks
func splitList(in []string) []string {
	out := []string{}
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
