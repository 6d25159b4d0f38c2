package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/playwright-community/playwright-go"

	"caixa_scrooper/config"
)

// Playwright runs every page in one browser context, so detail pages share
// the cookies set while filling the search form.
type Playwright struct {
	cfg     *config.SiteConfig
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	mu      sync.Mutex
	closed  bool
}

func NewPlaywright(cfg *config.SiteConfig) (*Playwright, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	}
	if cfg.Proxy != "" {
		opts.Proxy = &playwright.Proxy{Server: cfg.Proxy}
	}

	browser, err := pw.Chromium.Launch(opts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if cfg.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(cfg.UserAgent)
	}
	bctx, err := browser.NewContext(ctxOpts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	log.Debug("Playwright browser launched", "headless", cfg.Headless)
	return &Playwright{cfg: cfg, pw: pw, browser: browser, context: bctx}, nil
}

// NewPage opens a new tab in the shared context.
func (b *Playwright) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := b.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &playwrightPage{page: page}, nil
}

func (b *Playwright) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var firstErr error
	if b.context != nil {
		firstErr = b.context.Close()
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type playwrightPage struct {
	page playwright.Page
}

func msFloat(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (p *playwrightPage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resp, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   msFloat(timeout),
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	})
	if err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	if resp != nil && !okStatus(resp.Status()) {
		return &StatusError{URL: url, Status: resp.Status()}
	}
	return nil
}

func (p *playwrightPage) wait(ctx context.Context, selector string, state *playwright.WaitForSelectorState, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: msFloat(timeout),
	})
	if err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

func (p *playwrightPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return p.wait(ctx, selector, playwright.WaitForSelectorStateVisible, timeout)
}

func (p *playwrightPage) WaitAttached(ctx context.Context, selector string, timeout time.Duration) error {
	return p.wait(ctx, selector, playwright.WaitForSelectorStateAttached, timeout)
}

func (p *playwrightPage) Select(ctx context.Context, selector, value string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loc := p.page.Locator(selector).First()

	raw, err := loc.Evaluate(listOptionsJS, nil, playwright.LocatorEvaluateOptions{Timeout: msFloat(timeout)})
	if err != nil {
		return fmt.Errorf("select %q in %s: %w", value, selector, err)
	}
	options, err := decodeOptions(raw)
	if err != nil {
		return fmt.Errorf("select %q in %s: %w", value, selector, err)
	}
	optValue, ok := MatchOption(options, value)
	if !ok {
		return fmt.Errorf("select %q in %s: no matching option", value, selector)
	}

	selected, err := loc.SelectOption(
		playwright.SelectOptionValues{Values: &[]string{optValue}},
		playwright.LocatorSelectOptionOptions{Timeout: msFloat(timeout)},
	)
	if err != nil {
		return fmt.Errorf("select %q in %s: %w", value, selector, err)
	}
	if len(selected) == 0 {
		return fmt.Errorf("select %q in %s: no matching option", value, selector)
	}
	return nil
}

func (p *playwrightPage) ClickAndWaitNavigation(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resp, err := p.page.ExpectNavigation(func() error {
		return p.page.Locator(selector).First().Click()
	}, playwright.PageExpectNavigationOptions{
		Timeout:   msFloat(timeout),
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	})
	if err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	if resp != nil && !okStatus(resp.Status()) {
		return &StatusError{URL: resp.URL(), Status: resp.Status()}
	}
	return nil
}

func (p *playwrightPage) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.Content()
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}
