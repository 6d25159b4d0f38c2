package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadSite_MissingFileUsesDefaults(t *testing.T) {
	site, err := LoadSite(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if site.ID != "caixa" {
		t.Fatalf("expected default site, got %s", site.ID)
	}
	if err := site.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if site.SearchURL() != "https://venda-imoveis.caixa.gov.br/sistema/busca-imovel.asp" {
		t.Fatalf("unexpected search URL %s", site.SearchURL())
	}
	if site.Timeouts.Results() != 10*time.Second {
		t.Fatalf("expected 10s results timeout, got %s", site.Timeouts.Results())
	}
}

func TestLoadSite_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	data := []byte(`
browser: chromedp
delay_ms: 500
selectors:
  results: "#lista"
fields:
  - field: title
    selectors: ["h3"]
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	site, err := LoadSite(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if site.Browser != "chromedp" {
		t.Fatalf("expected chromedp, got %s", site.Browser)
	}
	if site.Delay() != 500*time.Millisecond {
		t.Fatalf("expected 500ms delay, got %s", site.Delay())
	}
	if site.Selectors.Results != "#lista" {
		t.Fatalf("expected results override, got %s", site.Selectors.Results)
	}
	if site.Selectors.Region != "#estado" {
		t.Fatalf("expected region default kept, got %s", site.Selectors.Region)
	}
	if len(site.Fields) != 1 || site.Fields[0].Selectors[0] != "h3" {
		t.Fatalf("unexpected field rules %+v", site.Fields)
	}
}

func TestValidate_RejectsUnknownBrowser(t *testing.T) {
	site := DefaultSite()
	site.Browser = "firefox"
	if err := site.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidate_RejectsZeroTimeout(t *testing.T) {
	site := DefaultSite()
	site.Timeouts.DetailMS = 0
	if err := site.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidate_Proxy(t *testing.T) {
	site := DefaultSite()
	site.Proxy = "http://proxy.local:8080"
	if err := site.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	site.Proxy = "not a proxy"
	if err := site.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("CAIXA_TEST_INT", "42")
	if got := getEnvInt("CAIXA_TEST_INT", 1); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("CAIXA_TEST_INT", "abc")
	if got := getEnvInt("CAIXA_TEST_INT", 1); got != 1 {
		t.Fatalf("expected fallback 1, got %d", got)
	}
}

func TestTimeouts_Content(t *testing.T) {
	site := DefaultSite()
	if site.Timeouts.Content() != 30*time.Second {
		t.Fatalf("expected 30s content timeout, got %s", site.Timeouts.Content())
	}
	site.Timeouts.ContentMS = 0
	if err := site.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_StaleRunAfter(t *testing.T) {
	t.Setenv("SITE_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	t.Setenv("STALE_RUN_HOURS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StaleRunAfter != 12*time.Hour {
		t.Errorf("expected 12h default, got %s", cfg.StaleRunAfter)
	}

	t.Setenv("STALE_RUN_HOURS", "2")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StaleRunAfter != 2*time.Hour {
		t.Errorf("expected 2h, got %s", cfg.StaleRunAfter)
	}
}
