// Package browser wraps the automation backends behind the small set of page
// operations the search flow and the detail visits need.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"caixa_scrooper/config"
)

// Page is one isolated tab. Every blocking call is bounded by the timeout it
// receives or by ctx, whichever ends first.
type Page interface {
	// Goto loads url and waits for the network to settle. Non-2xx responses
	// are reported as *StatusError.
	Goto(ctx context.Context, url string, timeout time.Duration) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	WaitAttached(ctx context.Context, selector string, timeout time.Duration) error
	// Select picks the first option whose value, or whose trimmed label,
	// equals value exactly.
	Select(ctx context.Context, selector, value string, timeout time.Duration) error
	ClickAndWaitNavigation(ctx context.Context, selector string, timeout time.Duration) error
	// Content returns the rendered document as HTML.
	Content(ctx context.Context) (string, error)
	Close() error
}

type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.URL, e.Status)
}

// New starts the backend named by cfg.Browser.
func New(cfg *config.SiteConfig) (Browser, error) {
	switch cfg.Browser {
	case "", "playwright":
		b, err := NewPlaywright(cfg)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "chromedp":
		b, err := NewChromedp(cfg)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown browser backend: %s", cfg.Browser)
	}
}

// Option is one entry of a <select>.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// listOptionsJS returns the options of the element it is evaluated on.
const listOptionsJS = `el => Array.from(el.options || []).map(o => ({ value: o.value, label: o.text }))`

// MatchOption returns the value of the first option whose value or trimmed
// label equals want.
func MatchOption(options []Option, want string) (string, bool) {
	for _, o := range options {
		if o.Value == want || strings.TrimSpace(o.Label) == want {
			return o.Value, true
		}
	}
	return "", false
}

// decodeOptions converts an evaluation result into options.
func decodeOptions(raw any) ([]Option, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var options []Option
	if err := json.Unmarshal(data, &options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return options, nil
}

func okStatus(status int) bool {
	return status >= 200 && status < 300
}
