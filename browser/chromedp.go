package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/chromedp"

	"caixa_scrooper/config"
)

type Chromedp struct {
	cfg           *config.SiteConfig
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func NewChromedp(cfg *config.SiteConfig) (*Chromedp, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1440, 900),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.Proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	log.Debug("Chromedp browser launched", "headless", cfg.Headless)
	return &Chromedp{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

func (b *Chromedp) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &chromedpPage{ctx: tabCtx, cancel: cancel, contentTimeout: b.cfg.Timeouts.Content()}, nil
}

func (b *Chromedp) Close() error {
	b.browserCancel()
	b.allocCancel()
	return nil
}

type chromedpPage struct {
	ctx            context.Context
	cancel         context.CancelFunc
	contentTimeout time.Duration
}

// bound derives a run context from the tab that also ends with ctx.
func (p *chromedpPage) bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (p *chromedpPage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	runCtx, cancel := p.bound(ctx, timeout)
	defer cancel()

	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}
	if resp != nil && !okStatus(int(resp.Status)) {
		return &StatusError{URL: url, Status: int(resp.Status)}
	}
	return nil
}

func (p *chromedpPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	runCtx, cancel := p.bound(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

func (p *chromedpPage) WaitAttached(ctx context.Context, selector string, timeout time.Duration) error {
	runCtx, cancel := p.bound(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %s: %w", selector, err)
	}
	return nil
}

const setValueJS = `(function(sel, value) {
	const el = document.querySelector(sel);
	if (!el) return false;
	el.value = value;
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})(%s, %s)`

func (p *chromedpPage) Select(ctx context.Context, selector, value string, timeout time.Duration) error {
	runCtx, cancel := p.bound(ctx, timeout)
	defer cancel()

	sel, _ := json.Marshal(selector)

	var options []Option
	list := fmt.Sprintf(`(%s)(document.querySelector(%s) || {})`, listOptionsJS, sel)
	if err := chromedp.Run(runCtx, chromedp.Evaluate(list, &options)); err != nil {
		return fmt.Errorf("select %q in %s: %w", value, selector, err)
	}
	optValue, ok := MatchOption(options, value)
	if !ok {
		return fmt.Errorf("select %q in %s: no matching option", value, selector)
	}

	val, _ := json.Marshal(optValue)
	var done bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(fmt.Sprintf(setValueJS, sel, val), &done)); err != nil {
		return fmt.Errorf("select %q in %s: %w", value, selector, err)
	}
	if !done {
		return fmt.Errorf("select %q in %s: element not found", value, selector)
	}
	return nil
}

func (p *chromedpPage) ClickAndWaitNavigation(ctx context.Context, selector string, timeout time.Duration) error {
	runCtx, cancel := p.bound(ctx, timeout)
	defer cancel()

	resp, err := chromedp.RunResponse(runCtx, chromedp.Click(selector, chromedp.ByQuery))
	if err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	if resp != nil && !okStatus(int(resp.Status)) {
		return &StatusError{URL: resp.URL, Status: int(resp.Status)}
	}
	return nil
}

func (p *chromedpPage) Content(ctx context.Context) (string, error) {
	runCtx, cancel := p.bound(ctx, p.contentTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return html, nil
}

func (p *chromedpPage) Close() error {
	p.cancel()
	return nil
}
