package models

import "time"

// PageData is the raw result of fetching one URL through a fetch backend
type PageData struct {
	URL          string            `json:"url"`
	FinalURL     string            `json:"final_url,omitempty"`
	StatusCode   int               `json:"status_code"`
	HTML         string            `json:"html,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Backend      string            `json:"backend,omitempty"`
	FetchedAt    time.Time         `json:"fetched_at"`
	ResponseTime int64             `json:"response_time_ms"`
}

// ScraperMode defines the fetch backend to use
type ScraperMode string

const (
	ModeAuto   ScraperMode = "auto"
	ModeStatic ScraperMode = "static"
	ModeSPA    ScraperMode = "spa"
)

// ParseMode converts a user supplied mode string into a ScraperMode
func ParseMode(s string) (ScraperMode, bool) {
	switch ScraperMode(s) {
	case ModeAuto, ModeStatic, ModeSPA:
		return ScraperMode(s), true
	case "":
		return ModeStatic, true
	}
	return "", false
}
