package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format only")
	cmd.PersistentFlags().String("proxy", "", "Comma separated HTTP/SOCKS5 proxies to rotate through")
	cmd.PersistentFlags().String("timeout", "30s", "Per-fetch timeout")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().String("config", "", "Path to a YAML configuration file (optional)")
	cmd.PersistentFlags().Int("retries", 0, "Retries per page on transient fetch errors")
}

// RegisterCrawlFlags registers flags shared by commands that run crawls
func RegisterCrawlFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.Flags().StringArrayP("header", "H", nil, "Extra request header \"Key: Value\" (repeatable)")
	cmd.Flags().StringP("mode", "m", DefaultMode, "Fetch backend: static, spa or auto")
	cmd.Flags().Int("max-pages", DefaultMaxPages, "Page ceiling for multi-page crawls")
	cmd.Flags().Int("max-links-per-page", DefaultMaxLinksPerPage, "New URLs one page may add to the frontier")
	cmd.Flags().Bool("respect-robots", DefaultRespectRobots, "Skip URLs disallowed by robots.txt")
	cmd.Flags().String("chrome-path", "", "Chrome executable for spa and auto modes")
	cmd.Flags().String("store", DefaultStoreType, "Markup store: none, memory, disk or redis")
	cmd.Flags().String("store-dir", "", "Directory for the disk store")
	cmd.Flags().String("redis-addr", "", "Redis address for the redis store")
}
