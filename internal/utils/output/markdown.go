package output

import (
	"bytes"
	"io"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/seocrawl/pkg/models"
)

// WriteMarkdown renders the HTML report and converts it to GitHub flavored
// Markdown, so both formats always carry the same content.
func WriteMarkdown(w io.Writer, rep *models.SEOReport) error {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, rep); err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return err
	}
	doc.Find("head, style, script").Remove()

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	mdStr := converter.Convert(doc.Selection)
	_, err = io.WriteString(w, strings.TrimSpace(mdStr)+"\n")
	return err
}
