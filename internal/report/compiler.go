// Package report aggregates page records into a site-level SEO report.
package report

import (
	"fmt"
	"html"
	"math"
	"time"

	urlutil "github.com/law-makers/seocrawl/internal/utils/url"
	"github.com/law-makers/seocrawl/pkg/models"
)

// PagePenaltyPerIssue is subtracted from a page's score for every issue found on it
const PagePenaltyPerIssue = 10

// Weights are the technical score penalties per site issue severity
type Weights struct {
	High   int `mapstructure:"high" json:"high"`
	Medium int `mapstructure:"medium" json:"medium"`
	Low    int `mapstructure:"low" json:"low"`
}

// DefaultWeights returns the 20/10/5 severity weights
func DefaultWeights() Weights {
	return Weights{High: 20, Medium: 10, Low: 5}
}

// For returns the penalty for one issue of the given severity
func (w Weights) For(s models.Severity) int {
	switch s {
	case models.SeverityHigh:
		return w.High
	case models.SeverityMedium:
		return w.Medium
	case models.SeverityLow:
		return w.Low
	}
	return 0
}

func (w Weights) isZero() bool {
	return w == Weights{}
}

// Input is everything the compiler needs from one traversal
type Input struct {
	Target string
	// Records in the order they were visited
	Records     []*models.PageRecord
	Start       time.Time
	End         time.Time
	Attempted   int
	Status      models.CrawlStatus
	Interrupted bool
	Verified    bool
	Error       string
	Backend     string
	CrawlID     string
	// Weights defaults to DefaultWeights when left zero
	Weights Weights
}

// PageScore returns the score of a page with the given number of issues
func PageScore(issues int) int {
	return max(0, 100-PagePenaltyPerIssue*issues)
}

// Compile builds the site report. It never returns nil and every collection
// in the result is non-nil, even when no page was fetched.
func Compile(in Input) *models.SEOReport {
	weights := in.Weights
	if weights.isZero() {
		weights = DefaultWeights()
	}

	var valid, failed []*models.PageRecord
	for _, rec := range in.Records {
		if rec == nil {
			continue
		}
		if rec.IsError() {
			failed = append(failed, rec)
			continue
		}
		rec.Score = PageScore(len(rec.Issues))
		valid = append(valid, rec)
	}

	issues := technicalIssues(valid, failed)
	technical := 100
	for _, issue := range issues {
		technical -= weights.For(issue.Severity)
	}
	technical = clamp(technical, 0, 100)

	var average float64
	if len(valid) > 0 {
		total := 0
		for _, rec := range valid {
			total += rec.Score
		}
		average = float64(total) / float64(len(valid))
	}
	overall := clamp(int(math.Round((average+float64(technical))/2)), 0, 100)

	crawled := make([]string, 0, len(in.Records))
	pages := make([]models.PageRecord, 0, len(in.Records))
	totalBytes := 0
	for _, rec := range in.Records {
		if rec == nil {
			continue
		}
		crawled = append(crawled, rec.URL)
		view := *rec
		// Error records keep their markup for debugging
		if !rec.IsError() {
			view.HTML = ""
		}
		if view.Issues == nil {
			view.Issues = []models.PageIssue{}
		}
		pages = append(pages, view)
		if !rec.IsError() {
			totalBytes += rec.ContentLength
		}
	}

	status := in.Status
	if status == "" || status == models.CrawlRunning {
		status = models.CrawlCompleted
	}
	end := in.End
	if end.IsZero() {
		end = time.Now()
	}

	return &models.SEOReport{
		URL:              in.Target,
		CrawledURLs:      crawled,
		OverallScore:     overall,
		TechnicalScore:   technical,
		AveragePageScore: average,
		Summary:          summary(in.Target, len(valid), len(failed), overall),
		HTML:             targetHTML(in.Target, valid),
		Pages:            pages,
		TechnicalIssues:  issues,
		Timestamp:        end,
		CrawlVerification: models.CrawlVerification{
			StartTime:       in.Start,
			EndTime:         end,
			PagesAttempted:  in.Attempted,
			PagesSuccessful: len(valid),
			PagesFailed:     len(failed),
			TotalBytes:      totalBytes,
			CrawledURLs:     crawled,
			Status:          status,
			Interrupted:     in.Interrupted,
			Verified:        in.Verified,
			Error:           in.Error,
			Backend:         in.Backend,
			CrawlID:         in.CrawlID,
		},
	}
}

func summary(target string, valid, failed, overall int) string {
	if failed > 0 {
		return fmt.Sprintf("SEO audit of %s: %d pages analyzed, %d failed, overall score %d/100", target, valid, failed, overall)
	}
	return fmt.Sprintf("SEO audit of %s: %d pages analyzed, overall score %d/100", target, valid, overall)
}

// targetHTML prefers the markup of the target itself, then the first page
// that has any, then a placeholder.
func targetHTML(target string, valid []*models.PageRecord) string {
	key := urlutil.Normalize(target)
	for _, rec := range valid {
		if rec.HTML != "" && urlutil.Normalize(rec.URL) == key {
			return rec.HTML
		}
	}
	for _, rec := range valid {
		if rec.HTML != "" {
			return rec.HTML
		}
	}
	return FallbackHTML(target)
}

// FallbackHTML is the labelled placeholder used when no page produced markup
func FallbackHTML(target string) string {
	t := html.EscapeString(target)
	return "<!DOCTYPE html>\n<html>\n<head><title>No content retrieved: " + t + "</title></head>\n" +
		"<body>\n<h1>No content retrieved</h1>\n" +
		"<p>This is a placeholder generated by seocrawl. No page of <a href=\"" + t + "\">" + t +
		"</a> returned analyzable markup. See crawlVerification for details.</p>\n</body>\n</html>\n"
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
