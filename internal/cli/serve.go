package cli

import (
	"github.com/law-makers/seocrawl/internal/config"
	"github.com/law-makers/seocrawl/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve crawls over HTTP",
	Long: `Starts an HTTP API:

  POST /api/crawl   run a crawl, body {"url": "...", "mode": "static", "options": {...}}
  GET  /healthz     liveness
  GET  /metrics     Prometheus metrics`,
	Example: `  seocrawl serve --addr :9000 --store memory`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		srv := server.New(a, a.CrawlOptions(),
			server.WithMaxPages(a.Config.ServerMaxPages),
			server.WithCrawlTimeout(a.Config.CrawlTimeout),
		)
		return srv.ListenAndServe(cmd.Context(), a.Config.ServerAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	config.RegisterCrawlFlags(serveCmd)
	serveCmd.Flags().String("addr", config.DefaultServerAddr, "Listen address")
	serveCmd.Flags().Int("server-max-pages", config.DefaultServerMaxPages, "Largest page ceiling a request may ask for")
	serveCmd.Flags().Duration("crawl-timeout", config.DefaultCrawlTimeout, "Deadline for one crawl")
}
