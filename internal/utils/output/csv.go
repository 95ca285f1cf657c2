package output

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/law-makers/seocrawl/pkg/models"
)

var csvHeader = []string{
	"url", "status", "score", "title", "description", "canonical",
	"h1_count", "word_count", "images", "images_without_alt",
	"internal_links", "external_links", "issues", "error",
}

// WriteCSV writes one row per crawled page
func WriteCSV(w io.Writer, rep *models.SEOReport) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range rep.Pages {
		issues := make([]string, len(p.Issues))
		for i, issue := range p.Issues {
			issues[i] = issue.Type
		}
		row := []string{
			p.URL,
			strconv.Itoa(p.StatusCode),
			strconv.Itoa(p.Score),
			p.Title,
			p.MetaTags.Description,
			p.MetaTags.Canonical,
			strconv.Itoa(len(p.Headings.H1)),
			strconv.Itoa(p.WordCount),
			strconv.Itoa(p.Images.Total),
			strconv.Itoa(p.Images.WithoutAlt),
			strconv.Itoa(p.Links.InternalCount),
			strconv.Itoa(p.Links.ExternalCount),
			strings.Join(issues, ";"),
			p.Error,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
