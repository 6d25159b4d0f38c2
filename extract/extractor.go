package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"caixa_scrooper/models"
)

type Extractor struct {
	rules         []FieldRule
	labelSelector string
}

// New builds an extractor. Nil rules fall back to DefaultRules and an empty
// label selector to DefaultLabelSelector.
func New(rules []FieldRule, labelSelector string) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	if labelSelector == "" {
		labelSelector = DefaultLabelSelector
	}
	return &Extractor{rules: rules, labelSelector: labelSelector}
}

// Extract fills a record from doc. Missing fields stay "". Link is left to
// the caller since it is an input, not something found on the page.
func (e *Extractor) Extract(doc *goquery.Document) models.PropertyRecord {
	var rec models.PropertyRecord
	for _, rule := range e.rules {
		if rule.Field == models.FieldLink {
			continue
		}
		v := SelectorText(doc, rule.Selectors...)
		if v == "" {
			v = LabelValue(doc, e.labelSelector, rule.Labels...)
		}
		rec.Set(rule.Field, v)
	}
	return rec
}

// ExtractHTML parses html and extracts a record from it.
func (e *Extractor) ExtractHTML(html string) (models.PropertyRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.PropertyRecord{}, fmt.Errorf("parse detail page: %w", err)
	}
	return e.Extract(doc), nil
}
