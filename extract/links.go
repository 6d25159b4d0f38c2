package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HarvestLinks returns, in document order, the absolute href of every anchor
// whose href contains hrefContains and whose text contains textContains.
// Duplicates are kept.
func HarvestLinks(doc *goquery.Document, base, hrefContains, textContains string) []string {
	links := []string{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || !strings.Contains(href, hrefContains) {
			return
		}
		if !strings.Contains(Collapse(a.Text()), textContains) {
			return
		}
		links = append(links, Absolute(base, href))
	})
	return links
}

// HarvestLinksHTML parses html and harvests links from it.
func HarvestLinksHTML(html, base, hrefContains, textContains string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return HarvestLinks(doc, base, hrefContains, textContains), nil
}

// Absolute resolves href against base. Hrefs that already start with http
// are returned untouched.
func Absolute(base, href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return base + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return base + href
	}
	return b.ResolveReference(ref).String()
}
