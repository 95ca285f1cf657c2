package crawler

import (
	"context"
	"testing"

	"github.com/law-makers/seocrawl/internal/engine"
	"github.com/law-makers/seocrawl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByHost(t *testing.T) {
	groups := GroupByHost([]string{
		"https://a.example/",
		"https://b.example/",
		"https://A.example/about",
		"::bad",
	})
	assert.Equal(t, [][]int{{0, 2}, {1}, {3}}, groups)
}

func TestOptimalConcurrency(t *testing.T) {
	n := OptimalConcurrency()
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, 16)
}

func TestRunBatch(t *testing.T) {
	site := newFakeSite().
		add("https://a.example/", page("Site A home page")).
		add("https://a.example/about", page("Site A about page")).
		add("https://b.example/", page("Site B home page"))

	targets := []string{"https://a.example/", "https://b.example/", "not a url", "https://a.example/about"}
	results := RunBatch(context.Background(), New(site), targets, models.CrawlOptions{}, 2)

	require.Len(t, results, 4)
	for i, res := range results {
		assert.Equal(t, targets[i], res.Target)
	}
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "Site A home page", results[0].Report.Pages[0].Title)
	assert.Equal(t, "Site B home page", results[1].Report.Pages[0].Title)
	assert.ErrorIs(t, results[2].Err, engine.ErrInvalidURL)
	assert.Nil(t, results[2].Report)
	assert.Equal(t, "Site A about page", results[3].Report.Pages[0].Title)
	assert.Equal(t, 3, site.fetchCount())
}

func TestRunBatch_Cancelled(t *testing.T) {
	site := newFakeSite().add("https://a.example/", page("Site A home page"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := RunBatch(ctx, New(site), []string{"https://a.example/", "https://a.example/x"}, models.CrawlOptions{}, 0)
	for _, res := range results {
		assert.ErrorIs(t, res.Err, context.Canceled)
		assert.Nil(t, res.Report)
	}
	assert.Zero(t, site.fetchCount())
}
