package report

import (
	"fmt"

	"github.com/law-makers/seocrawl/pkg/models"
)

// Site issue titles
const (
	TitleCrawlErrors         = "Crawl errors"
	TitleMissingDescriptions = "Missing meta descriptions"
	TitleMissingCanonicals   = "Missing canonical tags"
	TitleMissingH1           = "Missing H1 headings"
	TitleImagesWithoutAlt    = "Images without alt text"
)

type siteRule struct {
	title          string
	severity       models.Severity
	impact         string
	recommendation string
	// match reports how many units a page contributes and whether it is affected
	match func(rec *models.PageRecord) (int, bool)
}

var pageRules = []siteRule{
	{
		title:          TitleMissingDescriptions,
		severity:       models.SeverityMedium,
		impact:         "Search engines generate their own snippets, which lowers click-through rates.",
		recommendation: "Write a unique meta description for every page.",
		match: func(rec *models.PageRecord) (int, bool) {
			return 1, rec.MetaTags.Description == ""
		},
	},
	{
		title:          TitleMissingCanonicals,
		severity:       models.SeverityMedium,
		impact:         "Duplicate URLs compete with each other and split ranking signals.",
		recommendation: "Declare a canonical URL on every indexable page.",
		match: func(rec *models.PageRecord) (int, bool) {
			return 1, rec.MetaTags.Canonical == ""
		},
	},
	{
		title:          TitleMissingH1,
		severity:       models.SeverityMedium,
		impact:         "Pages without a main heading give weaker topical signals.",
		recommendation: "Give every page one H1 describing its main topic.",
		match: func(rec *models.PageRecord) (int, bool) {
			return 1, len(rec.Headings.H1) == 0
		},
	},
	{
		title:          TitleImagesWithoutAlt,
		severity:       models.SeverityMedium,
		impact:         "Images without alt text are invisible to image search and screen readers.",
		recommendation: "Add descriptive alt attributes to content images.",
		match: func(rec *models.PageRecord) (int, bool) {
			return rec.Images.WithoutAlt, rec.Images.WithoutAlt > 0
		},
	},
}

// technicalIssues derives the site-wide issue list. Priority follows list
// order, which is by descending severity.
func technicalIssues(valid, failed []*models.PageRecord) []models.SiteIssue {
	issues := []models.SiteIssue{}

	if len(failed) > 0 {
		urls := make([]string, 0, len(failed))
		for _, rec := range failed {
			urls = append(urls, rec.URL)
		}
		issues = append(issues, models.SiteIssue{
			Title:          TitleCrawlErrors,
			Description:    fmt.Sprintf("%d pages could not be fetched or analyzed", len(failed)),
			Severity:       models.SeverityHigh,
			Impact:         "Pages that fail for the crawler are likely failing for search engines too.",
			Recommendation: "Check server logs and fix the errors reported for the affected URLs.",
			Count:          len(failed),
			AffectedURLs:   urls,
		})
	}

	for _, rule := range pageRules {
		count := 0
		var urls []string
		for _, rec := range valid {
			if n, ok := rule.match(rec); ok {
				count += n
				urls = append(urls, rec.URL)
			}
		}
		if count == 0 {
			continue
		}
		issues = append(issues, models.SiteIssue{
			Title:          rule.title,
			Description:    fmt.Sprintf("%d of %d pages affected", len(urls), len(valid)),
			Severity:       rule.severity,
			Impact:         rule.impact,
			Recommendation: rule.recommendation,
			Count:          count,
			AffectedURLs:   urls,
		})
	}

	for i := range issues {
		issues[i].Priority = i + 1
	}
	return issues
}
