package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"caixa_scrooper/browser"
	"caixa_scrooper/config"
	"caixa_scrooper/extract"
	"caixa_scrooper/models"
	"caixa_scrooper/output"
)

// RunStore records run progress. Records are checkpointed one at a time so
// an interrupted run can still be exported.
type RunStore interface {
	CreateRun(run *models.ScrapeRun) (int64, error)
	UpdateRun(run *models.ScrapeRun) error
	Log(runID *int64, level models.LogLevel, message, siteID string) error
	SaveRecord(runID int64, position int, rec *models.PropertyRecord) error
}

// RecordSink receives the full result set of a completed run.
type RecordSink interface {
	SaveRecords(ctx context.Context, run *models.ScrapeRun, records models.ResultSet) error
}

type Uploader interface {
	UploadFile(ctx context.Context, filePath, contentType string) (string, error)
	PublicURL(key string) string
}

type BrowserFactory func(site *config.SiteConfig) (browser.Browser, error)

type RunOptions struct {
	Formats       []output.Format
	OutDir        string
	WriterOptions []output.WriterOption
}

type Result struct {
	Run      *models.ScrapeRun
	Records  models.ResultSet
	Failures []*DetailError
	Files    []string
}

type Orchestrator struct {
	cfg        *config.Config
	store      RunStore
	newBrowser BrowserFactory
	sleep      Sleeper
	jitter     func(n int64) int64
	now        func() time.Time

	sink     RecordSink
	uploader Uploader
}

func NewOrchestrator(cfg *config.Config, store RunStore) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		store:      store,
		newBrowser: browser.New,
		sleep:      SleepContext,
		now:        time.Now,
	}
}

// SetSinks injects the optional Postgres sink and S3 uploader. Either may
// be nil.
func (o *Orchestrator) SetSinks(sink RecordSink, uploader Uploader) {
	o.sink = sink
	o.uploader = uploader
}

func (o *Orchestrator) SetBrowserFactory(f BrowserFactory) {
	o.newBrowser = f
}

func (o *Orchestrator) SetSleeper(s Sleeper) {
	o.sleep = s
}

func (o *Orchestrator) SetJitterSource(fn func(n int64) int64) {
	o.jitter = fn
}

// Run performs one full extraction for criteria: search, harvest, visit
// every detail page, then write the result set once per format.
func (o *Orchestrator) Run(ctx context.Context, criteria models.SearchCriteria, opts RunOptions) (*Result, error) {
	criteria = criteria.Normalize()
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []output.Format{output.FormatJSON, output.FormatCSV}
	}
	if opts.OutDir == "" {
		opts.OutDir = o.cfg.OutputDir
	}

	site := o.cfg.Site
	run := &models.ScrapeRun{
		UUID:      uuid.NewString(),
		SiteID:    site.ID,
		Region:    criteria.Region,
		Locality:  criteria.Locality,
		StartedAt: o.now(),
		Status:    models.RunStatusRunning,
	}
	runID, err := o.store.CreateRun(run)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	run.ID = runID
	result := &Result{Run: run, Records: models.ResultSet{}}

	o.log(run, models.LogLevelInfo, fmt.Sprintf("Starting scrape for %s / %s", criteria.Region, criteria.Locality))

	b, err := o.newBrowser(site)
	if err != nil {
		o.finish(run, models.RunStatusFailed, err)
		return result, fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("Close browser", "err", err)
		}
	}()

	links, err := o.navigate(ctx, b, criteria)
	if err != nil {
		o.log(run, models.LogLevelError, fmt.Sprintf("Search failed: %v", err))
		o.finish(run, models.RunStatusFailed, err)
		return result, err
	}
	run.LinksFound = len(links)
	if len(links) == 0 {
		o.log(run, models.LogLevelWarn, "No properties found")
	} else {
		o.log(run, models.LogLevelInfo, fmt.Sprintf("Found %d properties", len(links)))
	}

	collector := NewCollector(b, extract.New(site.Fields, site.Selectors.Label), CollectorConfig{
		Timeout: site.Timeouts.Detail(),
		Delay:   site.Delay(),
		Jitter:  site.Jitter(),
	})
	collector.SetSleeper(o.sleep)
	if o.jitter != nil {
		collector.SetJitterSource(o.jitter)
	}
	collector.OnRecord = func(i int, rec models.PropertyRecord) {
		if err := o.store.SaveRecord(run.ID, i, &rec); err != nil {
			log.Warn("Checkpoint record", "run", run.ID, "n", i, "err", err)
		}
	}
	collector.OnFailure = func(f *DetailError) {
		run.ErrorsCount++
		o.log(run, models.LogLevelWarn, fmt.Sprintf("Skipped %s: %v", f.Link, f.Err))
	}

	coll, err := collector.Collect(ctx, links)
	result.Records = coll.Records
	result.Failures = coll.Failures
	run.Records = len(coll.Records)
	if err != nil {
		o.log(run, models.LogLevelError,
			fmt.Sprintf("Interrupted after %d records; run export --run %d to recover them", run.Records, run.ID))
		o.finish(run, models.RunStatusFailed, err)
		return result, err
	}

	base := output.Basename(criteria.Region, criteria.Locality, run.StartedAt)
	files, err := output.WriteFiles(opts.OutDir, base, coll.Records, opts.Formats, opts.WriterOptions...)
	result.Files = files
	if err != nil {
		o.log(run, models.LogLevelError, fmt.Sprintf("Write output: %v", err))
		o.finish(run, models.RunStatusFailed, err)
		return result, err
	}
	for _, f := range files {
		o.log(run, models.LogLevelInfo, fmt.Sprintf("Saved %d records to %s", run.Records, f))
	}

	o.finish(run, models.RunStatusCompleted, nil)
	o.publish(ctx, run, coll.Records, files, opts.Formats)

	o.log(run, models.LogLevelInfo,
		fmt.Sprintf("Completed: %d links, %d records, %d skipped", run.LinksFound, run.Records, run.ErrorsCount))
	return result, nil
}

func (o *Orchestrator) navigate(ctx context.Context, b browser.Browser, criteria models.SearchCriteria) ([]string, error) {
	page, err := b.NewPage(ctx)
	if err != nil {
		return nil, &NavigationError{State: StateLoaded, Err: err}
	}
	defer page.Close()

	nav := NewNavigator(page, o.cfg.Site)
	nav.SetSleeper(o.sleep)
	return nav.Run(ctx, criteria)
}

// publish hands a completed run to the optional sinks. Failures here are
// logged and do not fail the run; the local files are already written.
func (o *Orchestrator) publish(ctx context.Context, run *models.ScrapeRun, records models.ResultSet, files []string, formats []output.Format) {
	if o.sink != nil {
		if err := o.sink.SaveRecords(ctx, run, records); err != nil {
			o.log(run, models.LogLevelWarn, fmt.Sprintf("Postgres sink: %v", err))
		}
	}
	if o.uploader != nil {
		for i, f := range files {
			key, err := o.uploader.UploadFile(ctx, f, formats[i].ContentType())
			if err != nil {
				o.log(run, models.LogLevelWarn, fmt.Sprintf("Upload %s: %v", f, err))
				continue
			}
			o.log(run, models.LogLevelInfo, fmt.Sprintf("Uploaded %s", o.uploader.PublicURL(key)))
		}
	}
}

func (o *Orchestrator) finish(run *models.ScrapeRun, status models.RunStatus, err error) {
	now := o.now()
	run.FinishedAt = &now
	run.Status = status
	if err != nil {
		run.ErrorMessage = err.Error()
		if errors.Is(err, context.Canceled) {
			run.ErrorMessage = "interrupted"
		}
	}
	if uerr := o.store.UpdateRun(run); uerr != nil {
		log.Error("Update run", "run", run.ID, "err", uerr)
	}
}

func (o *Orchestrator) log(run *models.ScrapeRun, level models.LogLevel, message string) {
	switch level {
	case models.LogLevelError:
		log.Error(message, "run", run.ID, "site", run.SiteID)
	case models.LogLevelWarn:
		log.Warn(message, "run", run.ID, "site", run.SiteID)
	default:
		log.Info(message, "run", run.ID, "site", run.SiteID)
	}
	if err := o.store.Log(&run.ID, level, message, run.SiteID); err != nil {
		log.Debug("Store log", "err", err)
	}
}
