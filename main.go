package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"caixa_scrooper/config"
	"caixa_scrooper/logging"
	"caixa_scrooper/storage"
)

var rootCmd = &cobra.Command{
	Use:   "caixa_scrooper",
	Short: "Extracts property listings from the Caixa property sale site",
	Long: `caixa_scrooper fills the Caixa property search form for one state and
city, visits every listing in the results and writes the extracted records
as JSON, CSV or YAML.

Examples:
  # Scrape Natal, RN and write JSON + CSV into ./out
  caixa_scrooper scrape --region RN --locality Natal --out out

  # Show the last runs
  caixa_scrooper runs

  # Re-export the records of run 12 as CSV
  caixa_scrooper export --run 12 --format csv`,
	SilenceUsage: true,
}

// app holds what every subcommand needs. It is built lazily so --help works
// without a database.
type app struct {
	cfg     *config.Config
	store   *storage.SQLiteStore
	logFile *logging.RotatingWriter
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logFile, err := logging.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		log.Warn("Could not set up file logging", "err", err)
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, err
	}
	log.Debug("SQLite database", "path", cfg.DBPath)

	return &app{cfg: cfg, store: store, logFile: logFile}, nil
}

func (a *app) Close() {
	a.store.Close()
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// maskConnectionString masks password in connection string for logging
func maskConnectionString(connStr string) string {
	// Simple mask - find :// and mask until @
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	// Find : after user
	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
