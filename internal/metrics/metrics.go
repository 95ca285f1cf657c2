package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counts fetched pages by backend and outcome (ok, error, cached).
var PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "seocrawl_pages_fetched_total",
	Help: "Total number of pages fetched, by backend and outcome",
}, []string{"backend", "outcome"})

// Measures how long live fetches take.
var FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "seocrawl_fetch_duration_seconds",
	Help:    "Time taken to fetch a page",
	Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
}, []string{"backend"})

// Counts finished crawls by terminal status.
var CrawlsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "seocrawl_crawls_total",
	Help: "Total number of crawls, by status",
}, []string{"status"})

// Counts pages served from the markup store instead of the network.
var StoreHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "seocrawl_store_hits_total",
	Help: "Total number of pages loaded from the markup store",
})

// Captures the distribution of overall report scores.
var OverallScore = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "seocrawl_overall_score",
	Help:    "Overall score of compiled reports",
	Buckets: prometheus.LinearBuckets(10, 10, 10),
})

// Outcome labels for PagesFetched
const (
	OutcomeOK     = "ok"
	OutcomeError  = "error"
	OutcomeCached = "cached"
)
