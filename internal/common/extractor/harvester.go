package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Harvester collects detail page links from a listing page
type Harvester struct {
	selector string
}

// NewHarvester creates a harvester matching anchors with selector
func NewHarvester(selector string) *Harvester {
	if selector == "" {
		selector = DefaultSelectors().JobLink
	}
	return &Harvester{selector: selector}
}

// Harvest returns the hrefs of matching anchors in page order.
// Anchors without href are skipped and relative links are resolved against the page URL.
// An empty result means the page listed no jobs.
func (h *Harvester) Harvest(doc *goquery.Document) []string {
	links := []string{}
	seen := make(map[string]bool)

	doc.Find(h.selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}

		if doc.Url != nil {
			if abs, err := doc.Url.Parse(href); err == nil {
				href = abs.String()
			}
		}

		if seen[href] {
			return
		}
		seen[href] = true
		links = append(links, href)
	})

	return links
}
