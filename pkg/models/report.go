package models

import "time"

const (
	// DefaultMaxPages is the page ceiling used when a crawl does not set one
	DefaultMaxPages = 20

	// DefaultMaxLinksPerPage bounds how many new URLs one page may add to the frontier
	DefaultMaxLinksPerPage = 6
)

// CrawlOptions controls a single crawl invocation
type CrawlOptions struct {
	VerifyData      bool `json:"verifyData"`
	MultiPage       bool `json:"multiPage"`
	MaxPages        int  `json:"maxPages,omitempty"`
	ForceFullCrawl  bool `json:"forceFullCrawl"`
	MaxLinksPerPage int  `json:"maxLinksPerPage,omitempty"`
	RespectRobots   bool `json:"respectRobots,omitempty"`
}

// EffectiveMaxPages returns the page ceiling for this crawl.
// Single-page crawls always stop after one page.
func (o CrawlOptions) EffectiveMaxPages() int {
	if !o.MultiPage {
		return 1
	}
	if o.MaxPages <= 0 {
		return DefaultMaxPages
	}
	return o.MaxPages
}

// LinksPerPage returns the frontier growth cap per page, or 0 for unlimited
func (o CrawlOptions) LinksPerPage() int {
	if o.ForceFullCrawl {
		return 0
	}
	if o.MaxLinksPerPage <= 0 {
		return DefaultMaxLinksPerPage
	}
	return o.MaxLinksPerPage
}

// ErrorKind classifies why a page produced an error record
type ErrorKind string

const (
	ErrorKindFetch      ErrorKind = "fetch"
	ErrorKindServer     ErrorKind = "server"
	ErrorKindExtraction ErrorKind = "extraction"
	ErrorKindClientApp  ErrorKind = "client_app_error"
)

// PageRecord is the extraction result for one visited URL.
// A record with a non-empty Error is the error variant.
type PageRecord struct {
	URL                 string              `json:"url"`
	Title               string              `json:"title"`
	HTML                string              `json:"html,omitempty"`
	Timestamp           time.Time           `json:"timestamp"`
	StatusCode          int                 `json:"statusCode,omitempty"`
	ContentLength       int                 `json:"contentLength"`
	MetaTags            MetaTags            `json:"metaTags"`
	Headings            Headings            `json:"headings"`
	Links               LinkSummary         `json:"links"`
	Images              ImageSummary        `json:"images"`
	TextContent         string              `json:"textContent"`
	WordCount           int                 `json:"wordCount"`
	PageSpecificContent PageSpecificContent `json:"pageSpecificContent"`
	IsMobileFriendly    bool                `json:"isMobileFriendly"`
	HreflangTags        []HreflangTag       `json:"hreflangTags"`
	Issues              []PageIssue         `json:"issues"`
	Score               int                 `json:"score"`
	FetchedWith         string              `json:"fetchedWith,omitempty"`
	ResponseTimeMs      int64               `json:"responseTimeMs,omitempty"`

	Error     string    `json:"error,omitempty"`
	ErrorKind ErrorKind `json:"errorKind,omitempty"`
}

// IsError reports whether the record is the error variant
func (p *PageRecord) IsError() bool {
	return p.Error != ""
}

// MetaTags holds head metadata relevant to search engines and social cards
type MetaTags struct {
	Description        string `json:"description"`
	Keywords           string `json:"keywords"`
	Canonical          string `json:"canonical"`
	Robots             string `json:"robots"`
	Viewport           string `json:"viewport"`
	HasViewport        bool   `json:"hasViewport"`
	OGTitle            string `json:"ogTitle"`
	OGDescription      string `json:"ogDescription"`
	OGImage            string `json:"ogImage"`
	TwitterCard        string `json:"twitterCard"`
	TwitterTitle       string `json:"twitterTitle"`
	TwitterDescription string `json:"twitterDescription"`
	TwitterImage       string `json:"twitterImage"`
}

type Headings struct {
	H1 []string `json:"h1"`
	H2 []string `json:"h2"`
	H3 []string `json:"h3"`
}

type LinkSummary struct {
	Internal      []string `json:"internal"`
	External      []string `json:"external"`
	InternalCount int      `json:"internalCount"`
	ExternalCount int      `json:"externalCount"`
}

type ImageSummary struct {
	Total      int           `json:"total"`
	WithAlt    int           `json:"withAlt"`
	WithoutAlt int           `json:"withoutAlt"`
	Sample     []ImageSample `json:"sample"`
}

type ImageSample struct {
	Src    string `json:"src"`
	Alt    string `json:"alt"`
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
	HasAlt bool   `json:"hasAlt"`
}

// PageSpecificContent holds best-effort signals harvested by markup heuristics
type PageSpecificContent struct {
	NavigationLabels []string          `json:"navigationLabels"`
	ButtonLabels     []string          `json:"buttonLabels"`
	Products         []Product         `json:"products"`
	ScriptGlobals    map[string]string `json:"scriptGlobals,omitempty"`
}

type Product struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type HreflangTag struct {
	Hreflang string `json:"hreflang"`
	Href     string `json:"href"`
}

// PageIssue is a single per-page SEO finding
type PageIssue struct {
	Type           string         `json:"type"`
	Detail         string         `json:"detail"`
	Proof          map[string]any `json:"proof,omitempty"`
	Recommendation string         `json:"recommendation"`
}

// Severity of a site-wide issue
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// SiteIssue is a technical issue aggregated across all crawled pages
type SiteIssue struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Severity       Severity `json:"severity"`
	Impact         string   `json:"impact"`
	Recommendation string   `json:"recommendation"`
	Priority       int      `json:"priority"`
	Count          int      `json:"count"`
	AffectedURLs   []string `json:"affectedUrls,omitempty"`
}

// CrawlStatus is the terminal state of a crawl invocation
type CrawlStatus string

const (
	CrawlIdle      CrawlStatus = "idle"
	CrawlRunning   CrawlStatus = "running"
	CrawlCompleted CrawlStatus = "completed"
	CrawlFailed    CrawlStatus = "failed"
)

// CrawlVerification records how the crawl went, independent of SEO findings
type CrawlVerification struct {
	StartTime       time.Time   `json:"startTime"`
	EndTime         time.Time   `json:"endTime"`
	PagesAttempted  int         `json:"pagesAttempted"`
	PagesSuccessful int         `json:"pagesSuccessful"`
	PagesFailed     int         `json:"pagesFailed"`
	TotalBytes      int         `json:"totalBytes"`
	CrawledURLs     []string    `json:"crawledUrls"`
	Status          CrawlStatus `json:"status"`
	Interrupted     bool        `json:"interrupted"`
	Verified        bool        `json:"verified"`
	Error           string      `json:"error,omitempty"`
	Backend         string      `json:"backend,omitempty"`
	CrawlID         string      `json:"crawlId,omitempty"`
}

// SEOReport is the terminal artifact of a crawl
type SEOReport struct {
	URL               string            `json:"url"`
	CrawledURLs       []string          `json:"crawledUrls"`
	OverallScore      int               `json:"overallScore"`
	TechnicalScore    int               `json:"technicalScore"`
	AveragePageScore  float64           `json:"averagePageScore"`
	Summary           string            `json:"summary"`
	HTML              string            `json:"html"`
	Pages             []PageRecord      `json:"pages"`
	TechnicalIssues   []SiteIssue       `json:"technicalIssues"`
	Timestamp         time.Time         `json:"timestamp"`
	CrawlVerification CrawlVerification `json:"crawlVerification"`
}
