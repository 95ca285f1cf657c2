// Package analysis turns page markup into SEO page records and frontier candidates.
package analysis

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/seocrawl/internal/engine"
	urlutil "github.com/law-makers/seocrawl/internal/utils/url"
	"github.com/law-makers/seocrawl/pkg/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	MaxHeadingsPerLevel = 10
	MaxImageSamples     = 10
	MaxTextContentRunes = 1000
	maxHeuristicItems   = 20
)

// Parse builds a queryable document from raw markup
func Parse(markup string) (*goquery.Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(root), nil
}

// Extract parses markup and builds the page record for pageURL
func Extract(markup, pageURL string) (*models.PageRecord, error) {
	doc, err := Parse(markup)
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeParseError, "failed to parse markup", err)
	}
	return ExtractDocument(doc, markup, pageURL)
}

// ExtractDocument builds the page record from an already parsed document.
// The page score is left at zero; it is assigned during report compilation.
func ExtractDocument(doc *goquery.Document, markup, pageURL string) (rec *models.PageRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = engine.NewEngineError(engine.ErrCodeParseError, "extraction failed", fmt.Errorf("%v", r)).
				WithDetail("url", pageURL)
		}
	}()

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeParseError, "invalid page URL", err)
	}

	rec = &models.PageRecord{
		URL:           pageURL,
		Title:         pageTitle(doc),
		HTML:          markup,
		Timestamp:     time.Now(),
		ContentLength: len(markup),
		MetaTags:      extractMetaTags(doc),
		Headings:      extractHeadings(doc),
		Links:         extractLinks(doc, base),
		Images:        extractImages(doc, base),
		HreflangTags:  extractHreflang(doc),
		PageSpecificContent: models.PageSpecificContent{
			NavigationLabels: navigationLabels(doc),
			ButtonLabels:     buttonLabels(doc),
			Products:         products(doc),
		},
	}

	text := visibleText(doc)
	rec.WordCount = len(strings.Fields(text))
	rec.TextContent = truncateRunes(text, MaxTextContentRunes)
	rec.IsMobileFriendly = rec.MetaTags.HasViewport || strings.Contains(markup, "@media")
	rec.Issues = DetectIssues(rec)

	return rec, nil
}

// ExtractPage builds a record for fetched page data, carrying over fetch
// metadata and any script globals captured by the backend.
func ExtractPage(doc *goquery.Document, data *models.PageData) (*models.PageRecord, error) {
	rec, err := ExtractDocument(doc, data.HTML, data.URL)
	if err != nil {
		return nil, err
	}

	rec.StatusCode = data.StatusCode
	rec.FetchedWith = data.Backend
	rec.ResponseTimeMs = data.ResponseTime

	for key, value := range data.Metadata {
		name, ok := strings.CutPrefix(key, "js:")
		if !ok {
			continue
		}
		if rec.PageSpecificContent.ScriptGlobals == nil {
			rec.PageSpecificContent.ScriptGlobals = make(map[string]string)
		}
		rec.PageSpecificContent.ScriptGlobals[name] = value
	}

	return rec, nil
}

func pageTitle(doc *goquery.Document) string {
	title := doc.Find("head title").First()
	if title.Length() == 0 {
		title = doc.Find("title").First()
	}
	return strings.TrimSpace(title.Text())
}

func extractMetaTags(doc *goquery.Document) models.MetaTags {
	var m models.MetaTags

	fields := map[string]*string{
		"description":         &m.Description,
		"keywords":            &m.Keywords,
		"robots":              &m.Robots,
		"viewport":            &m.Viewport,
		"og:title":            &m.OGTitle,
		"og:description":      &m.OGDescription,
		"og:image":            &m.OGImage,
		"twitter:card":        &m.TwitterCard,
		"twitter:title":       &m.TwitterTitle,
		"twitter:description": &m.TwitterDescription,
		"twitter:image":       &m.TwitterImage,
	}

	doc.Find("meta").Each(func(i int, sel *goquery.Selection) {
		key := sel.AttrOr("name", "")
		if key == "" {
			key = sel.AttrOr("property", "")
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "viewport" {
			m.HasViewport = true
		}
		dst, ok := fields[key]
		if !ok || *dst != "" {
			return
		}
		*dst = strings.TrimSpace(sel.AttrOr("content", ""))
	})

	doc.Find("link[rel]").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if hasRel(sel, "canonical") {
			m.Canonical = strings.TrimSpace(sel.AttrOr("href", ""))
			return m.Canonical == ""
		}
		return true
	})

	return m
}

func extractHeadings(doc *goquery.Document) models.Headings {
	h := models.Headings{H1: []string{}, H2: []string{}, H3: []string{}}
	doc.Find("h1, h2, h3").Each(func(i int, sel *goquery.Selection) {
		text := collapseSpace(sel.Text())
		switch goquery.NodeName(sel) {
		case "h1":
			h.H1 = append(h.H1, text)
		case "h2":
			if len(h.H2) < MaxHeadingsPerLevel {
				h.H2 = append(h.H2, text)
			}
		case "h3":
			if len(h.H3) < MaxHeadingsPerLevel {
				h.H3 = append(h.H3, text)
			}
		}
	})
	return h
}

func extractLinks(doc *goquery.Document, base *url.URL) models.LinkSummary {
	s := models.LinkSummary{Internal: []string{}, External: []string{}}
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		resolved, err := urlutil.Resolve(base.String(), sel.AttrOr("href", ""))
		if err != nil || (resolved.Scheme != "http" && resolved.Scheme != "https") {
			return
		}
		abs := resolved.String()
		if seen[abs] {
			return
		}
		seen[abs] = true

		if strings.EqualFold(resolved.Hostname(), base.Hostname()) {
			s.Internal = append(s.Internal, abs)
		} else {
			s.External = append(s.External, abs)
		}
	})

	s.InternalCount = len(s.Internal)
	s.ExternalCount = len(s.External)
	return s
}

func extractImages(doc *goquery.Document, base *url.URL) models.ImageSummary {
	s := models.ImageSummary{Sample: []models.ImageSample{}}

	doc.Find("img[src]").Each(func(i int, sel *goquery.Selection) {
		src := strings.TrimSpace(sel.AttrOr("src", ""))
		if src == "" {
			return
		}
		alt := strings.TrimSpace(sel.AttrOr("alt", ""))
		hasAlt := alt != ""

		s.Total++
		if hasAlt {
			s.WithAlt++
		} else {
			s.WithoutAlt++
		}

		if len(s.Sample) < MaxImageSamples {
			s.Sample = append(s.Sample, models.ImageSample{
				Src:    urlutil.ResolveURL(base.String(), src),
				Alt:    alt,
				Width:  sel.AttrOr("width", ""),
				Height: sel.AttrOr("height", ""),
				HasAlt: hasAlt,
			})
		}
	})

	return s
}

func extractHreflang(doc *goquery.Document) []models.HreflangTag {
	tags := []models.HreflangTag{}
	doc.Find("link[hreflang]").Each(func(i int, sel *goquery.Selection) {
		if !hasRel(sel, "alternate") {
			return
		}
		tags = append(tags, models.HreflangTag{
			Hreflang: sel.AttrOr("hreflang", ""),
			Href:     sel.AttrOr("href", ""),
		})
	})
	return tags
}

// visibleText concatenates body text nodes, skipping non-rendered elements
func visibleText(doc *goquery.Document) string {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body.Get(0))

	return collapseSpace(sb.String())
}

func hasRel(sel *goquery.Selection, want string) bool {
	for _, token := range strings.Fields(sel.AttrOr("rel", "")) {
		if strings.EqualFold(token, want) {
			return true
		}
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
