package cli

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/law-makers/seocrawl/internal/config"
	"github.com/law-makers/seocrawl/internal/crawler"
	"github.com/law-makers/seocrawl/internal/ui"
	"github.com/law-makers/seocrawl/internal/utils/output"
	"github.com/law-makers/seocrawl/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit <url> [url...]",
	Short: "Crawl one or more sites and print their SEO reports",
	Long: `Fetches the target page (and, with --multi-page, same-origin pages linked
from it), checks each page for common SEO problems and compiles a scored report.

Several targets are audited concurrently; targets on the same host run one
after another.`,
	Example: `  # Audit a single page
  seocrawl audit https://example.com

  # Follow links, up to 50 pages, rendering JavaScript where needed
  seocrawl audit https://example.com -p --max-pages 50 --mode auto

  # Write an HTML report
  seocrawl audit https://example.com -p -o report.html

  # Audit several sites and dump JSON
  seocrawl audit https://a.example https://b.example --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	config.RegisterCrawlFlags(auditCmd)
	auditCmd.Flags().BoolP("multi-page", "p", false, "Follow same-origin links from the target")
	auditCmd.Flags().Bool("force-full", false, "Do not cap how many links one page may add")
	auditCmd.Flags().Bool("verify", false, "Always fetch live, bypassing the markup store")
	auditCmd.Flags().StringP("output", "o", "", "Save the report (.json, .html, .md or .csv)")
	auditCmd.Flags().Int("concurrency", config.DefaultConcurrency, "Sites audited at once (0 = auto)")
}

func crawlOptionsFromFlags(cmd *cobra.Command, base models.CrawlOptions) models.CrawlOptions {
	base.MultiPage, _ = cmd.Flags().GetBool("multi-page")
	base.ForceFullCrawl, _ = cmd.Flags().GetBool("force-full")
	base.VerifyData, _ = cmd.Flags().GetBool("verify")
	return base
}

func runAudit(cmd *cobra.Command, args []string) error {
	a, err := appFrom(cmd)
	if err != nil {
		return err
	}
	mode, _ := models.ParseMode(a.Config.Mode)
	opts := crawlOptionsFromFlags(cmd, a.CrawlOptions())
	outPath, _ := cmd.Flags().GetString("output")
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		var extra []crawler.Option
		if !a.Config.Quiet && !a.Config.JSONLog {
			bar := newProgressBar(cmd.ErrOrStderr(), opts.EffectiveMaxPages())
			defer bar.Finish()
			extra = append(extra, crawler.WithProgress(func(p crawler.Progress) {
				// the frontier may run dry before the ceiling
				if total := p.Visited + p.Queued; total < p.MaxPages {
					bar.ChangeMax(total)
				}
				bar.Describe(shorten(p.URL, 40))
				bar.Set(p.Visited)
			}))
		}

		c, err := a.Crawler(mode, extra...)
		if err != nil {
			return err
		}
		rep, err := c.Crawl(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}
		return emit(out, rep, outPath, a.Config.JSONLog)
	}

	c, err := a.Crawler(mode)
	if err != nil {
		return err
	}
	results := crawler.RunBatch(cmd.Context(), c, args, opts, a.Config.Concurrency)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Error(fmt.Sprintf("%s: %v", res.Target, res.Err)))
			continue
		}
		path := ""
		if outPath != "" {
			path = batchOutputPath(outPath, res.Target)
		}
		if err := emit(out, res.Report, path, a.Config.JSONLog); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d targets failed", failed, len(results))
	}
	return nil
}

func newProgressBar(w io.Writer, max int) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("crawling"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}

// emit saves the report when path is set and prints it to w
func emit(w io.Writer, rep *models.SEOReport, path string, asJSON bool) error {
	if path != "" {
		if err := output.Save(rep, path); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		log.Info().Str("path", path).Msg("Report saved")
	}
	if asJSON {
		return output.WriteJSON(w, rep)
	}
	printSummary(w, rep)
	if path != "" {
		fmt.Fprintf(w, "%s\n\n", ui.Dim("Report saved to "+path))
	}
	return nil
}

// batchOutputPath derives one file per target from the --output path, e.g.
// report.html becomes report-example.com.html
func batchOutputPath(path, target string) string {
	host := "site"
	if u, err := url.Parse(target); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	host = strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(host)
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + host + ext
}

func printSummary(w io.Writer, rep *models.SEOReport) {
	v := rep.CrawlVerification

	fmt.Fprintf(w, "\n%s\n", ui.Bold(rep.URL))
	fmt.Fprintf(w, "  Overall     %s\n", ui.Score(rep.OverallScore))
	fmt.Fprintf(w, "  Technical   %s\n", ui.Score(rep.TechnicalScore))
	fmt.Fprintf(w, "  Page avg    %.1f\n", rep.AveragePageScore)
	fmt.Fprintf(w, "  Pages       %d analyzed, %d failed\n", v.PagesSuccessful, v.PagesFailed)

	status := string(v.Status)
	if v.Interrupted {
		status += " (interrupted)"
	}
	fmt.Fprintf(w, "  Status      %s\n", status)
	if v.Error != "" {
		fmt.Fprintf(w, "  %s\n", ui.Error(v.Error))
	}

	if len(rep.TechnicalIssues) > 0 {
		fmt.Fprintf(w, "\n  %s\n", ui.Bold("Technical issues"))
		for _, issue := range rep.TechnicalIssues {
			fmt.Fprintf(w, "  %d. %s %s (%d)\n", issue.Priority, ui.Severity(issue.Severity), issue.Title, issue.Count)
		}
	}

	if len(rep.Pages) > 0 {
		fmt.Fprintf(w, "\n  %s\n", ui.Bold("Pages"))
		for _, p := range rep.Pages {
			if p.IsError() {
				fmt.Fprintf(w, "  %s  %s %s\n", ui.Error("  ERR "), p.URL, ui.Dim(p.Error))
				continue
			}
			fmt.Fprintf(w, "  %s  %s %s\n", ui.Score(p.Score), p.URL, ui.Dim(fmt.Sprintf("%d issues", len(p.Issues))))
		}
	}
	fmt.Fprintln(w)
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
