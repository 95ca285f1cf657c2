package crawler

import (
	"context"
	"net/url"
	"runtime"
	"strings"

	"github.com/law-makers/seocrawl/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of one target in a batch
type BatchResult struct {
	Target string
	Report *models.SEOReport
	Err    error
}

// OptimalConcurrency picks how many sites to crawl at once. Each crawl may
// hold a browser, so the count is bounded by free memory as well as CPUs.
func OptimalConcurrency() int {
	numCPU := runtime.NumCPU()
	optimal := numCPU * 2

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	availMB := (m.Sys - m.Alloc) / 1024 / 1024

	// ~100MB per rendering session
	maxByMemory := int(availMB / 100)

	if optimal > 16 {
		optimal = 16
	}
	if maxByMemory > 0 && maxByMemory < optimal {
		optimal = maxByMemory
	}
	return max(optimal, 1)
}

// GroupByHost returns target indexes grouped by host, groups in first-seen order
func GroupByHost(targets []string) [][]int {
	var groups [][]int
	index := make(map[string]int)

	for i, t := range targets {
		host := ""
		if u, err := url.Parse(t); err == nil {
			host = strings.ToLower(u.Host)
		}
		g, ok := index[host]
		if !ok {
			g = len(groups)
			index[host] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// RunBatch crawls every target with the same options. Targets on the same
// host run one after another; different hosts run concurrently, at most
// concurrency at a time. Results are in target order. A cancelled context
// stops unstarted targets, which report ctx.Err().
func RunBatch(ctx context.Context, c *Crawler, targets []string, opts models.CrawlOptions, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = OptimalConcurrency()
	}

	results := make([]BatchResult, len(targets))
	for i, t := range targets {
		results[i].Target = t
	}

	var g errgroup.Group
	g.SetLimit(concurrency)

	for _, group := range GroupByHost(targets) {
		g.Go(func() error {
			for _, i := range group {
				if err := ctx.Err(); err != nil {
					results[i].Err = err
					continue
				}
				rep, err := c.Crawl(ctx, targets[i], opts)
				if err != nil {
					log.Warn().Err(err).Str("target", targets[i]).Msg("Skipping target")
				}
				results[i].Report = rep
				results[i].Err = err
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
