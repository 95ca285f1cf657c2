// Package output renders SEO reports as JSON, HTML, Markdown or CSV.
package output

import (
	"encoding/json"
	"io"

	"github.com/law-makers/seocrawl/pkg/models"
)

// WriteJSON writes the report as indented JSON
func WriteJSON(w io.Writer, rep *models.SEOReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
