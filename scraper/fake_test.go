package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"caixa_scrooper/browser"
	"caixa_scrooper/config"
)

const searchURL = "https://venda-imoveis.caixa.gov.br/sistema/busca-imovel.asp"

const resultsHTML = `<html><body>
<div class="resultado-imovel">
  <a href="detalhe-imovel.asp?hdnimovel=1">Detalhe do Imóvel</a>
  <a href="detalhe-imovel.asp?hdnimovel=9">Ver fotos</a>
  <a href="detalhe-imovel.asp?hdnimovel=2">Detalhe do Imóvel</a>
</div>
</body></html>`

const emptyResultsHTML = `<html><body><div class="resultado-imovel">Nenhum imóvel encontrado</div></body></html>`

func detailHTML(title, code string) string {
	return fmt.Sprintf(`<html><body>
<h1>%s</h1>
<div><label>Número do imóvel:</label></div><div>%s</div>
<div><label>Comarca:</label></div><div>NATAL-RN</div>
</body></html>`, title, code)
}

var errBoom = errors.New("boom")

// fakeBrowser scripts page behaviour by URL and records every call made on
// any of its pages, in order.
type fakeBrowser struct {
	mu sync.Mutex

	content    map[string]string
	gotoErr    map[string]error
	options    map[string][]browser.Option
	failOn     string
	newPageErr error
	onGoto     func(url string)

	calls  []string
	pages  []*fakePage
	closed bool
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		content: map[string]string{searchURL: resultsHTML},
		gotoErr: map[string]error{},
	}
}

func (b *fakeBrowser) NewPage(ctx context.Context) (browser.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.newPageErr != nil {
		return nil, b.newPageErr
	}
	p := &fakePage{b: b}
	b.pages = append(b.pages, p)
	return p, nil
}

func (b *fakeBrowser) Close() error {
	b.closed = true
	return nil
}

func (b *fakeBrowser) record(call string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
	if b.failOn != "" && call == b.failOn {
		return errBoom
	}
	return nil
}

func (b *fakeBrowser) callsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range b.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (b *fakeBrowser) openPages() int {
	n := 0
	for _, p := range b.pages {
		if !p.closed {
			n++
		}
	}
	return n
}

type fakePage struct {
	b      *fakeBrowser
	url    string
	closed bool
}

func (p *fakePage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := p.b.record("Goto:" + url); err != nil {
		return err
	}
	if p.b.onGoto != nil {
		p.b.onGoto(url)
	}
	if err := p.b.gotoErr[url]; err != nil {
		return err
	}
	p.url = url
	return nil
}

func (p *fakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return p.b.record("WaitVisible:" + selector)
}

func (p *fakePage) WaitAttached(ctx context.Context, selector string, timeout time.Duration) error {
	return p.b.record("WaitAttached:" + selector)
}

// Select resolves value against the scripted options for selector, like a
// real page would, and records the option value that got selected.
func (p *fakePage) Select(ctx context.Context, selector, value string, timeout time.Duration) error {
	if options, ok := p.b.options[selector]; ok {
		resolved, found := browser.MatchOption(options, value)
		if !found {
			p.b.record("Select:" + selector + "=" + value)
			return fmt.Errorf("select %q in %s: no matching option", value, selector)
		}
		value = resolved
	}
	return p.b.record("Select:" + selector + "=" + value)
}

func (p *fakePage) ClickAndWaitNavigation(ctx context.Context, selector string, timeout time.Duration) error {
	return p.b.record("Click:" + selector)
}

func (p *fakePage) Content(ctx context.Context) (string, error) {
	if err := p.b.record("Content:" + p.url); err != nil {
		return "", err
	}
	return p.b.content[p.url], nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type sleepRecorder struct {
	durations []time.Duration
	err       error
	after     int
}

// sleep records d and fails once more than after calls were made, when err
// is set.
func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.durations = append(s.durations, d)
	if s.err != nil && len(s.durations) > s.after {
		return s.err
	}
	return ctx.Err()
}

func testSite() *config.SiteConfig {
	return config.DefaultSite()
}
