package browser

import (
	"context"
	"testing"

	"github.com/playwright-community/playwright-go"

	"caixa_scrooper/config"
)

// stubContext implements only the BrowserContext methods the backend calls.
type stubContext struct {
	playwright.BrowserContext
	pages  []*stubPage
	closed bool
}

func (c *stubContext) NewPage() (playwright.Page, error) {
	p := &stubPage{}
	c.pages = append(c.pages, p)
	return p, nil
}

func (c *stubContext) Close(options ...playwright.BrowserContextCloseOptions) error {
	c.closed = true
	return nil
}

type stubPage struct {
	playwright.Page
	closed bool
}

func (p *stubPage) Close(options ...playwright.PageCloseOptions) error {
	p.closed = true
	return nil
}

func TestPlaywright_PagesShareOneContext(t *testing.T) {
	shared := &stubContext{}
	b := &Playwright{cfg: config.DefaultSite(), context: shared}

	search, err := b.NewPage(context.Background())
	if err != nil {
		t.Fatalf("NewPage() error = %v", err)
	}
	detail, err := b.NewPage(context.Background())
	if err != nil {
		t.Fatalf("NewPage() error = %v", err)
	}
	if len(shared.pages) != 2 {
		t.Fatalf("expected both pages opened in the shared context, got %d", len(shared.pages))
	}

	if err := detail.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !shared.pages[1].closed {
		t.Error("detail page not closed")
	}
	if shared.closed {
		t.Fatal("closing a page must not close the shared context")
	}
	if shared.pages[0].closed {
		t.Error("closing one page closed another")
	}
	_ = search.Close()

	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !shared.closed {
		t.Error("browser Close should close the shared context")
	}
}

func TestPlaywright_NewPageCancelled(t *testing.T) {
	shared := &stubContext{}
	b := &Playwright{cfg: config.DefaultSite(), context: shared}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.NewPage(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if len(shared.pages) != 0 {
		t.Errorf("expected no page opened, got %d", len(shared.pages))
	}
}
