// Package extract turns rendered detail and result pages into records using
// label-driven heuristics. It works on parsed HTML only and never talks to a
// browser, so every rule can be exercised against fixtures.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultLabelSelector matches the elements that carry field captions on
// detail pages.
const DefaultLabelSelector = "label"

// Collapse trims s and folds every whitespace run into a single space.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SelectorText returns the collapsed text of the first element matching each
// selector in turn. The first non-empty result wins; "" when none match.
func SelectorText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if sel == "" {
			continue
		}
		if text := Collapse(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// LabelValue looks up each label variant in order and returns the first
// non-empty value. A variant matches the first label element whose trimmed,
// lower-cased text contains it; the value is the text of the element after
// the label's closest div, or after the label itself when it has no div
// ancestor.
func LabelValue(doc *goquery.Document, labelSelector string, labels ...string) string {
	if labelSelector == "" {
		labelSelector = DefaultLabelSelector
	}
	for _, label := range labels {
		if v := labelValue(doc, labelSelector, label); v != "" {
			return v
		}
	}
	return ""
}

func labelValue(doc *goquery.Document, labelSelector, label string) string {
	needle := strings.ToLower(strings.TrimSpace(label))
	if needle == "" {
		return ""
	}

	var match *goquery.Selection
	doc.Find(labelSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(strings.TrimSpace(s.Text())), needle) {
			match = s
			return false
		}
		return true
	})
	if match == nil {
		return ""
	}

	sibling := match.Next()
	if container := match.Closest("div"); container.Length() > 0 {
		sibling = container.Next()
	}
	if sibling.Length() == 0 {
		return ""
	}
	return Collapse(sibling.First().Text())
}
