package analysis

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/seocrawl/pkg/models"
)

// Best-effort selectors for site-specific signals. They match common theme
// conventions and will miss bespoke markup.
const (
	navSelector     = "nav a, header a, [role=navigation] a, .menu a, .navbar a, .nav a"
	buttonSelector  = "button, [role=button], a.btn, a.button, .cta, input[type=submit], input[type=button]"
	productSelector = ".product, .product-card, .product-item, [itemtype*='schema.org/Product']"
	productName     = "[itemprop=name], .product-title, .product-name, .woocommerce-loop-product__title, h2, h3"
	productPrice    = "[itemprop=price], .price, .product-price, .amount"
)

func navigationLabels(doc *goquery.Document) []string {
	return collectLabels(doc.Find(navSelector), func(sel *goquery.Selection) string {
		return sel.Text()
	})
}

func buttonLabels(doc *goquery.Document) []string {
	return collectLabels(doc.Find(buttonSelector), func(sel *goquery.Selection) string {
		if goquery.NodeName(sel) == "input" {
			return sel.AttrOr("value", "")
		}
		return sel.Text()
	})
}

// collectLabels returns unique non-empty labels in document order
func collectLabels(sel *goquery.Selection, label func(*goquery.Selection) string) []string {
	labels := []string{}
	seen := make(map[string]bool)
	sel.EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := collapseSpace(label(s))
		if text == "" || seen[text] {
			return true
		}
		seen[text] = true
		labels = append(labels, text)
		return len(labels) < maxHeuristicItems
	})
	return labels
}

func products(doc *goquery.Document) []models.Product {
	items := []models.Product{}
	doc.Find(productSelector).EachWithBreak(func(i int, card *goquery.Selection) bool {
		// Nested product containers are reported once, by the outermost card
		if card.ParentsFiltered(productSelector).Length() > 0 {
			return true
		}

		name := collapseSpace(card.Find(productName).First().Text())
		priceSel := card.Find(productPrice).First()
		price := strings.TrimSpace(priceSel.AttrOr("content", ""))
		if price == "" {
			price = collapseSpace(priceSel.Text())
		}

		if name != "" && price != "" {
			items = append(items, models.Product{Name: name, Price: price})
		}
		return len(items) < maxHeuristicItems
	})
	return items
}
