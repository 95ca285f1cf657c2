package report

import (
	"testing"
	"time"

	"github.com/law-makers/seocrawl/internal/analysis"
	"github.com/law-makers/seocrawl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanPage = `<html><head>
	<title>A perfectly fine title</title>
	<meta name="description" content="desc">
	<link rel="canonical" href="https://example.com/">
</head><body><h1>Heading</h1><img src="/a.png" alt="a"></body></html>`

func extract(t *testing.T, markup, pageURL string) *models.PageRecord {
	t.Helper()
	rec, err := analysis.Extract(markup, pageURL)
	require.NoError(t, err)
	return rec
}

func errorRecord(url string, kind models.ErrorKind) *models.PageRecord {
	return &models.PageRecord{URL: url, Timestamp: time.Now(), Error: "boom", ErrorKind: kind}
}

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	assert.Equal(t, 20, w.For(models.SeverityHigh))
	assert.Equal(t, 10, w.For(models.SeverityMedium))
	assert.Equal(t, 5, w.For(models.SeverityLow))
	assert.Equal(t, 0, w.For("unknown"))
}

func TestPageScore(t *testing.T) {
	assert.Equal(t, 100, PageScore(0))
	assert.Equal(t, 70, PageScore(3))
	assert.Equal(t, 0, PageScore(10))
	assert.Equal(t, 0, PageScore(15))
}

func TestCompile_ThreeIssuePage(t *testing.T) {
	markup := `<html><head>
		<title>A perfectly fine title</title>
		<link rel="canonical" href="https://example.com/">
	</head><body><p>Hello</p><img src="/a.png"></body></html>`
	rec := extract(t, markup, "https://example.com/")

	r := Compile(Input{Target: "https://example.com/", Records: []*models.PageRecord{rec}, Attempted: 1})

	require.Len(t, r.Pages, 1)
	assert.Len(t, r.Pages[0].Issues, 3)
	assert.Equal(t, 70, r.Pages[0].Score)
	assert.Equal(t, 70.0, r.AveragePageScore)
	// three medium site issues
	assert.Equal(t, 70, r.TechnicalScore)
	assert.Equal(t, 70, r.OverallScore)
	assert.Equal(t, markup, r.HTML)
	assert.Empty(t, r.Pages[0].HTML, "page views carry no raw markup")
	assert.Equal(t, markup, rec.HTML, "input records are not stripped")
}

func TestCompile_ServerErrorOnly(t *testing.T) {
	r := Compile(Input{
		Target:    "https://example.com/",
		Records:   []*models.PageRecord{errorRecord("https://example.com/", models.ErrorKindServer)},
		Attempted: 1,
	})

	assert.Equal(t, 1, r.CrawlVerification.PagesFailed)
	assert.Equal(t, 0, r.CrawlVerification.PagesSuccessful)
	require.Len(t, r.TechnicalIssues, 1)
	assert.Equal(t, TitleCrawlErrors, r.TechnicalIssues[0].Title)
	assert.Equal(t, models.SeverityHigh, r.TechnicalIssues[0].Severity)
	assert.Equal(t, 1, r.TechnicalIssues[0].Count)
	assert.Equal(t, 80, r.TechnicalScore)
	assert.Equal(t, 0.0, r.AveragePageScore)
	assert.Equal(t, 40, r.OverallScore)
	assert.Equal(t, FallbackHTML("https://example.com/"), r.HTML)
	assert.Contains(t, r.Summary, "https://example.com/")
	assert.Contains(t, r.Summary, "40/100")
}

func TestCompile_EmptyIsComplete(t *testing.T) {
	start := time.Now().Add(-time.Second)
	r := Compile(Input{Target: "https://example.com/a?b=<c>", Start: start, Status: models.CrawlFailed, Error: "no browser"})

	require.NotNil(t, r)
	assert.NotNil(t, r.Pages)
	assert.NotNil(t, r.TechnicalIssues)
	assert.NotNil(t, r.CrawledURLs)
	assert.NotNil(t, r.CrawlVerification.CrawledURLs)
	assert.Empty(t, r.Pages)
	assert.Equal(t, 100, r.TechnicalScore)
	assert.Equal(t, 50, r.OverallScore)
	assert.Equal(t, models.CrawlFailed, r.CrawlVerification.Status)
	assert.Equal(t, "no browser", r.CrawlVerification.Error)
	assert.Equal(t, start, r.CrawlVerification.StartTime)
	assert.False(t, r.CrawlVerification.EndTime.IsZero())

	assert.NotEmpty(t, r.HTML)
	assert.Contains(t, r.HTML, "No content retrieved")
	assert.Contains(t, r.HTML, "&lt;c&gt;")
	assert.NotContains(t, r.HTML, "<c>")
}

func TestCompile_AggregatesSiteIssues(t *testing.T) {
	noDesc := `<html><head><title>A perfectly fine title</title></head><body><img src="/1.png"><img src="/2.png"></body></html>`
	records := []*models.PageRecord{
		extract(t, cleanPage, "https://example.com/"),
		extract(t, noDesc, "https://example.com/a"),
		extract(t, noDesc, "https://example.com/b"),
		errorRecord("https://example.com/c", models.ErrorKindFetch),
	}

	r := Compile(Input{Target: "https://example.com/", Records: records, Attempted: 4})

	titles := make([]string, 0, len(r.TechnicalIssues))
	for i, issue := range r.TechnicalIssues {
		titles = append(titles, issue.Title)
		assert.Equal(t, i+1, issue.Priority)
	}
	assert.Equal(t, []string{
		TitleCrawlErrors,
		TitleMissingDescriptions,
		TitleMissingCanonicals,
		TitleMissingH1,
		TitleImagesWithoutAlt,
	}, titles)

	assert.Equal(t, 2, r.TechnicalIssues[1].Count)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, r.TechnicalIssues[1].AffectedURLs)
	// image counts are summed, not page counts
	assert.Equal(t, 4, r.TechnicalIssues[4].Count)

	// 100 - 20 - 4*10
	assert.Equal(t, 40, r.TechnicalScore)
	// pages score 100, 60, 60
	assert.InDelta(t, 73.333, r.AveragePageScore, 0.001)
	assert.Equal(t, 57, r.OverallScore)

	assert.Equal(t, 3, r.CrawlVerification.PagesSuccessful)
	assert.Equal(t, 1, r.CrawlVerification.PagesFailed)
	assert.Equal(t, 4, r.CrawlVerification.PagesAttempted)
	assert.Equal(t, len(cleanPage)+2*len(noDesc), r.CrawlVerification.TotalBytes)
	assert.Equal(t, []string{
		"https://example.com/", "https://example.com/a", "https://example.com/b", "https://example.com/c",
	}, r.CrawledURLs)
	assert.Equal(t, cleanPage, r.HTML)
	assert.Contains(t, r.Summary, "1 failed")
}

func TestCompile_TechnicalScoreIsClamped(t *testing.T) {
	var records []*models.PageRecord
	records = append(records, errorRecord("https://example.com/x", models.ErrorKindFetch))
	records = append(records, &models.PageRecord{URL: "https://example.com/", Images: models.ImageSummary{WithoutAlt: 1}})

	r := Compile(Input{
		Target:  "https://example.com/",
		Records: records,
		Weights: Weights{High: 90, Medium: 50, Low: 1},
	})

	assert.Equal(t, 0, r.TechnicalScore)
	assert.GreaterOrEqual(t, r.OverallScore, 0)
	assert.LessOrEqual(t, r.OverallScore, 100)
}

func TestCompile_PrefersTargetMarkup(t *testing.T) {
	records := []*models.PageRecord{
		{URL: "https://example.com/first", HTML: "<p>first</p>"},
		{URL: "https://EXAMPLE.com/#top", HTML: "<p>home</p>"},
	}
	r := Compile(Input{Target: "https://example.com", Records: records})
	assert.Equal(t, "<p>home</p>", r.HTML)
}

func TestCompile_StatusAndMetadata(t *testing.T) {
	r := Compile(Input{
		Target:      "https://example.com/",
		Status:      models.CrawlRunning,
		Interrupted: true,
		Verified:    true,
		Backend:     "static",
		CrawlID:     "abc",
	})

	assert.Equal(t, models.CrawlCompleted, r.CrawlVerification.Status)
	assert.True(t, r.CrawlVerification.Interrupted)
	assert.True(t, r.CrawlVerification.Verified)
	assert.Equal(t, "static", r.CrawlVerification.Backend)
	assert.Equal(t, "abc", r.CrawlVerification.CrawlID)
}
