package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"caixa_scrooper/models"
	"caixa_scrooper/output"
	"caixa_scrooper/scraper"
	"caixa_scrooper/storage"
)

func init() {
	scrapeCmd.Flags().StringP("region", "r", "", "two-letter state code, e.g. RN")
	scrapeCmd.Flags().StringP("locality", "l", "", "city name as listed in the search form")
	scrapeCmd.Flags().StringP("format", "f", "json,csv", "comma separated output formats (json, csv, yaml)")
	scrapeCmd.Flags().StringP("out", "o", "", "output directory (default $OUTPUT_DIR)")
	addWriterFlags(scrapeCmd)
	_ = scrapeCmd.MarkFlagRequired("region")
	_ = scrapeCmd.MarkFlagRequired("locality")

	runsCmd.Flags().IntP("limit", "n", 20, "number of runs to show")

	exportCmd.Flags().Int64("run", 0, "run id to export")
	exportCmd.Flags().StringP("format", "f", "json,csv", "comma separated output formats (json, csv, yaml)")
	exportCmd.Flags().StringP("out", "o", "", "output directory (default $OUTPUT_DIR)")
	addWriterFlags(exportCmd)
	_ = exportCmd.MarkFlagRequired("run")

	logsCmd.Flags().Int64("run", 0, "run id")
	_ = logsCmd.MarkFlagRequired("run")

	rootCmd.AddCommand(scrapeCmd, runsCmd, exportCmd, logsCmd)
}

func addWriterFlags(cmd *cobra.Command) {
	cmd.Flags().String("delimiter", ";", "CSV column delimiter")
	cmd.Flags().Int("indent", 2, "JSON indentation in spaces")
}

func writerOptions(cmd *cobra.Command) ([]output.WriterOption, error) {
	delim, _ := cmd.Flags().GetString("delimiter")
	indent, _ := cmd.Flags().GetInt("indent")
	if delim == "" {
		return nil, fmt.Errorf("--delimiter must not be empty")
	}
	if indent < 0 {
		return nil, fmt.Errorf("--indent must not be negative")
	}
	return []output.WriterOption{
		output.WithDelimiter(delim),
		output.WithIndent(strings.Repeat(" ", indent)),
	}, nil
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one extraction for a state and city",
	RunE:  runScrape,
}

func runScrape(cmd *cobra.Command, args []string) error {
	region, _ := cmd.Flags().GetString("region")
	locality, _ := cmd.Flags().GetString("locality")
	formatFlag, _ := cmd.Flags().GetString("format")
	outDir, _ := cmd.Flags().GetString("out")

	formats, err := output.ParseFormats(formatFlag)
	if err != nil {
		return err
	}
	writerOpts, err := writerOptions(cmd)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if n, err := a.store.MarkStaleRuns(a.cfg.StaleRunAfter); err == nil && n > 0 {
		log.Warn("Marked interrupted runs as failed", "count", n)
	}

	ctx, cancel := signalContext()
	defer cancel()

	orchestrator := scraper.NewOrchestrator(a.cfg, a.store)

	var sink scraper.RecordSink
	if a.cfg.DatabaseURL != "" {
		pgStore, err := storage.NewPostgresStore(ctx, a.cfg.DatabaseURL)
		if err != nil {
			log.Warn("Postgres sink disabled", "err", err)
		} else {
			defer pgStore.Close()
			log.Info("Connected to Postgres", "url", maskConnectionString(a.cfg.DatabaseURL))
			sink = pgStore
		}
	}

	var uploader scraper.Uploader
	if a.cfg.S3.Enabled() {
		s3Uploader, err := storage.NewS3Uploader(ctx, a.cfg.S3)
		if err != nil {
			log.Warn("S3 upload disabled", "err", err)
		} else {
			uploader = s3Uploader
		}
	}
	orchestrator.SetSinks(sink, uploader)

	result, err := orchestrator.Run(ctx, models.SearchCriteria{Region: region, Locality: locality}, scraper.RunOptions{
		Formats:       formats,
		OutDir:        outDir,
		WriterOptions: writerOpts,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Done! %d properties saved\n", len(result.Records))
	for _, f := range result.Files {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", f)
	}
	return nil
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.store.RecentRuns(limit)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTARTED\tREGION\tLOCALITY\tSTATUS\tLINKS\tRECORDS\tERRORS\tDURATION")
		for _, r := range runs {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				r.ID, r.StartedAt.Local().Format(time.DateTime), r.Region, r.Locality, r.Status,
				r.LinksFound, r.Records, r.ErrorsCount, runDuration(&r))
		}
		return tw.Flush()
	},
}

func runDuration(r *models.ScrapeRun) string {
	if r.FinishedAt == nil {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the stored records of a run to output files",
	Long: `Export re-emits the records checkpointed for a run. It also recovers
the records of a run that was interrupted before its files were written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, _ := cmd.Flags().GetInt64("run")
		formatFlag, _ := cmd.Flags().GetString("format")
		outDir, _ := cmd.Flags().GetString("out")

		formats, err := output.ParseFormats(formatFlag)
		if err != nil {
			return err
		}
		writerOpts, err := writerOptions(cmd)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		run, err := a.store.GetRun(runID)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %d not found", runID)
		}

		records, err := a.store.RecordsForRun(run.ID)
		if err != nil {
			return err
		}
		if outDir == "" {
			outDir = a.cfg.OutputDir
		}

		files, err := output.WriteFiles(outDir, output.Basename(run.Region, run.Locality, run.StartedAt), records, formats, writerOpts...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records from run %d (%s)\n", len(records), run.ID, run.Status)
		for _, f := range files {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", f)
		}
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the log of a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, _ := cmd.Flags().GetInt64("run")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		logs, err := a.store.LogsForRun(runID)
		if err != nil {
			return err
		}
		if len(logs) == 0 {
			fmt.Fprintf(os.Stderr, "No logs for run %d\n", runID)
			return nil
		}
		for _, l := range logs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-5s %s\n",
				l.Timestamp.Local().Format(time.DateTime), strings.ToUpper(string(l.Level)), l.Message)
		}
		return nil
	},
}
