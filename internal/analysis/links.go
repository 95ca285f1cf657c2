package analysis

import (
	"net/url"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	urlutil "github.com/law-makers/seocrawl/internal/utils/url"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skippedExtensions are resources that are never queued for crawling
var skippedExtensions = map[string]bool{
	".pdf": true, ".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".svg": true, ".mp4": true, ".zip": true, ".doc": true, ".docx": true,
	".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
}

var skippedPrefixes = []string{"#", "javascript:", "mailto:", "tel:"}

// highValueKeywords raise a link's priority when found in its text or URL
var highValueKeywords = []string{"product", "service", "about", "contact", "blog", "article", "category"}

// Candidate is a same-origin URL discovered on a page
type Candidate struct {
	// URL is the first-seen absolute form of the link
	URL string
	// Key is the normalized form used for de-duplication
	Key   string
	Text  string
	Score int
}

// DiscoverLinks returns the crawlable same-origin links of a page, de-duplicated
// on their normalized form and ordered by descending importance. Links with
// equal scores keep document order.
func DiscoverLinks(doc *goquery.Document, pageURL string, base *url.URL) []Candidate {
	var candidates []Candidate
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || hasSkippedPrefix(href) {
			return
		}

		resolved, err := urlutil.Resolve(pageURL, href)
		if err != nil || !urlutil.SameOrigin(resolved, base) {
			return
		}
		if skippedExtensions[strings.ToLower(path.Ext(resolved.Path))] {
			return
		}

		key := urlutil.NormalizeURL(resolved)
		if seen[key] {
			return
		}
		seen[key] = true

		text := collapseSpace(sel.Text())
		candidates = append(candidates, Candidate{
			URL:   resolved.String(),
			Key:   key,
			Text:  text,
			Score: linkScore(sel, text, resolved),
		})
	})

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	return candidates
}

func hasSkippedPrefix(href string) bool {
	lower := strings.ToLower(href)
	for _, p := range skippedPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// linkScore ranks a link by where it sits and how it is labelled
func linkScore(sel *goquery.Selection, text string, u *url.URL) int {
	score := 0

	inNav, inMain := false, false
	for n := sel.Get(0).Parent; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		switch n.DataAtom {
		case atom.Nav, atom.Header:
			inNav = true
		case atom.Main, atom.Article:
			inMain = true
		}
		if attrValue(n, "role") == "navigation" {
			inNav = true
		}
	}
	if inNav {
		score += 3
	}
	if inMain {
		score += 2
	}

	if text != "" {
		score++
		if utf8.RuneCountInString(text) >= 10 {
			score++
		}
	}

	if t, ok := sel.Attr("title"); ok && strings.TrimSpace(t) != "" {
		score++
	}

	haystack := strings.ToLower(text + " " + u.Path)
	for _, kw := range highValueKeywords {
		if strings.Contains(haystack, kw) {
			score += 2
			break
		}
	}

	return score
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
