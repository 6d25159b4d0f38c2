package browser

import (
	"strings"
	"testing"

	"caixa_scrooper/config"
)

func TestNew_UnknownBackend(t *testing.T) {
	site := config.DefaultSite()
	site.Browser = "lynx"

	if _, err := New(site); err == nil || !strings.Contains(err.Error(), "lynx") {
		t.Fatalf("expected unknown backend error, got %v", err)
	}
}

func TestStatusError(t *testing.T) {
	err := &StatusError{URL: "https://example.com/x", Status: 503}
	if err.Error() != "https://example.com/x returned status 503" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if okStatus(503) || !okStatus(204) {
		t.Fatal("okStatus misclassified")
	}
}

func TestMatchOption(t *testing.T) {
	options := []Option{
		{Value: "", Label: "Selecione"},
		{Value: "2408102", Label: " NATAL "},
		{Value: "Mossoró", Label: "MOSSORÓ"},
		{Value: "RN", Label: "Rio Grande do Norte"},
	}

	tests := []struct {
		want  string
		value string
		ok    bool
	}{
		{"NATAL", "2408102", true},
		{"2408102", "2408102", true},
		{"Mossoró", "Mossoró", true},
		{"MOSSORÓ", "Mossoró", true},
		{"RN", "RN", true},
		{"Rio Grande do Norte", "RN", true},
		{"Natal", "", false},
		{"NAT", "", false},
	}
	for _, tt := range tests {
		got, ok := MatchOption(options, tt.want)
		if ok != tt.ok || got != tt.value {
			t.Errorf("MatchOption(%q) = %q, %v; want %q, %v", tt.want, got, ok, tt.value, tt.ok)
		}
	}
}

func TestDecodeOptions(t *testing.T) {
	raw := []any{
		map[string]any{"value": "1", "label": "Natal"},
		map[string]any{"value": "2", "label": "Parnamirim"},
	}
	got, err := decodeOptions(raw)
	if err != nil {
		t.Fatalf("decodeOptions() error = %v", err)
	}
	if len(got) != 2 || got[1].Value != "2" || got[1].Label != "Parnamirim" {
		t.Fatalf("unexpected options %+v", got)
	}

	if _, err := decodeOptions("not a list"); err == nil {
		t.Fatal("expected error for non-list input")
	}
}
