package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/law-makers/seocrawl/internal/config"
	"github.com/law-makers/seocrawl/internal/ui"
	"github.com/law-makers/seocrawl/pkg/models"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <url>",
	Short: "Show the SEO signals extracted from a single page",
	Example: `  # Inspect a page fetched over HTTP
  seocrawl inspect https://example.com/pricing

  # Render it in Chrome first
  seocrawl inspect https://example.com/app --mode spa`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	config.RegisterCrawlFlags(inspectCmd)
	inspectCmd.Flags().Bool("verify", false, "Always fetch live, bypassing the markup store")
}

func runInspect(cmd *cobra.Command, args []string) error {
	a, err := appFrom(cmd)
	if err != nil {
		return err
	}
	mode, _ := models.ParseMode(a.Config.Mode)
	c, err := a.Crawler(mode)
	if err != nil {
		return err
	}

	opts := models.CrawlOptions{}
	opts.VerifyData, _ = cmd.Flags().GetBool("verify")
	rep, err := c.Crawl(cmd.Context(), args[0], opts)
	if err != nil {
		return err
	}
	if len(rep.Pages) == 0 {
		return fmt.Errorf("no page retrieved for %s", args[0])
	}

	page := rep.Pages[0]
	if a.Config.JSONLog {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}
	printPage(cmd.OutOrStdout(), &page)
	if page.IsError() {
		return fmt.Errorf("%s", page.Error)
	}
	return nil
}

func printPage(w io.Writer, p *models.PageRecord) {
	fmt.Fprintf(w, "\n%s\n", ui.Bold(p.URL))
	if p.IsError() {
		fmt.Fprintf(w, "  %s %s\n\n", ui.Error(string(p.ErrorKind)), p.Error)
		return
	}

	row := func(label, value string) {
		if value == "" {
			value = ui.Dim("(none)")
		}
		fmt.Fprintf(w, "  %-14s %s\n", label, value)
	}
	row("Score", ui.Score(p.Score))
	row("Status", fmt.Sprint(p.StatusCode))
	row("Fetched with", p.FetchedWith)
	row("Title", p.Title)
	row("Description", p.MetaTags.Description)
	row("Canonical", p.MetaTags.Canonical)
	row("Robots", p.MetaTags.Robots)
	row("H1", strings.Join(p.Headings.H1, " | "))
	row("H2 / H3", fmt.Sprintf("%d / %d", len(p.Headings.H2), len(p.Headings.H3)))
	row("Words", fmt.Sprint(p.WordCount))
	row("Images", fmt.Sprintf("%d (%d without alt)", p.Images.Total, p.Images.WithoutAlt))
	row("Links", fmt.Sprintf("%d internal, %d external", p.Links.InternalCount, p.Links.ExternalCount))
	row("Mobile", fmt.Sprint(p.IsMobileFriendly))
	if len(p.HreflangTags) > 0 {
		langs := make([]string, len(p.HreflangTags))
		for i, h := range p.HreflangTags {
			langs[i] = h.Hreflang
		}
		row("Hreflang", strings.Join(langs, ", "))
	}

	if len(p.Issues) == 0 {
		fmt.Fprintf(w, "\n  %s\n\n", ui.Dim("No issues found"))
		return
	}
	fmt.Fprintf(w, "\n  %s\n", ui.Bold("Issues"))
	for _, issue := range p.Issues {
		fmt.Fprintf(w, "  - %s\n    %s\n", issue.Detail, ui.Dim(issue.Recommendation))
	}
	fmt.Fprintln(w)
}
