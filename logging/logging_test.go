package logging

import (
	"bytes"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestRotatingWriter_Rotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.log")
	w, err := openRotating(path, 16)
	if err != nil {
		t.Fatalf("openRotating() error = %v", err)
	}
	defer w.Close()

	if _, err := w.Write([]byte("0123456789")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := w.Write([]byte("abcdefghij")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	backup, err := os.ReadFile(path + ".1")
	if err != nil {
		t.Fatalf("expected backup file: %v", err)
	}
	if string(backup) != "0123456789abcdefghij" {
		t.Errorf("unexpected backup content: %q", backup)
	}

	if _, err := w.Write([]byte("new")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	current, _ := os.ReadFile(path)
	if string(current) != "new" {
		t.Errorf("unexpected current content: %q", current)
	}
}

func TestOpenRotating_TruncatesOversized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.log")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := openRotating(path, 32)
	if err != nil {
		t.Fatalf("openRotating() error = %v", err)
	}
	defer w.Close()

	if w.size != 0 {
		t.Errorf("expected size 0 after truncation, got %d", w.size)
	}
}

func TestSetup_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.log")
	w, err := Setup(path, "debug")
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer w.Close()

	if w == nil {
		t.Fatal("expected a rotating writer")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected log file to exist: %v", err)
	}
}

func TestSetup_WritesToConsoleAndFile(t *testing.T) {
	prev := log.Default()
	buf := &bytes.Buffer{}
	console = buf
	t.Cleanup(func() {
		console = os.Stderr
		log.SetDefault(prev)
		stdlog.SetOutput(os.Stderr)
		stdlog.SetFlags(stdlog.LstdFlags)
	})

	path := filepath.Join(t.TempDir(), "scraper.log")
	rw, err := Setup(path, "info")
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer rw.Close()

	log.Info("Starting scrape", "run", 7)
	log.Debug("hidden")

	if !strings.Contains(buf.String(), "Starting scrape") {
		t.Errorf("expected message on console, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug message logged at info level")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "run=7") {
		t.Errorf("expected message in log file, got %q", string(data))
	}
}
