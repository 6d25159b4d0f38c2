package scraper

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"caixa_scrooper/browser"
	"caixa_scrooper/extract"
	"caixa_scrooper/models"
)

var ErrDetailNavigation = errors.New("detail page failed")

// DetailError is a per-listing failure. The listing is skipped and the run
// continues.
type DetailError struct {
	Index int
	Link  string
	Err   error
}

func (e *DetailError) Error() string {
	return fmt.Sprintf("detail %d (%s): %v", e.Index, e.Link, e.Err)
}

func (e *DetailError) Unwrap() error { return e.Err }

func (e *DetailError) Is(target error) bool { return target == ErrDetailNavigation }

// PageOpener opens a fresh, isolated page per detail link.
type PageOpener interface {
	NewPage(ctx context.Context) (browser.Page, error)
}

type CollectorConfig struct {
	Timeout time.Duration
	Delay   time.Duration
	Jitter  time.Duration
}

// Collection is the accumulator threaded through the per-link fold.
type Collection struct {
	Records  models.ResultSet
	Failures []*DetailError
}

// Collector visits detail links one at a time, in harvest order, with a
// politeness delay between visits.
type Collector struct {
	pages     PageOpener
	extractor *extract.Extractor
	cfg       CollectorConfig
	sleep     Sleeper
	jitter    func(n int64) int64

	OnRecord  func(index int, rec models.PropertyRecord)
	OnFailure func(failure *DetailError)
}

func NewCollector(pages PageOpener, extractor *extract.Extractor, cfg CollectorConfig) *Collector {
	if extractor == nil {
		extractor = extract.New(nil, "")
	}
	return &Collector{
		pages:     pages,
		extractor: extractor,
		cfg:       cfg,
		sleep:     SleepContext,
		jitter:    rand.Int63n,
	}
}

func (c *Collector) SetSleeper(s Sleeper) {
	c.sleep = s
}

// SetJitterSource replaces the random source for the delay jitter. fn must
// return a value in [0, n).
func (c *Collector) SetJitterSource(fn func(n int64) int64) {
	c.jitter = fn
}

// Collect returns the records in link order. Failed links are left out.
// Cancellation stops the fold and returns what was gathered with ctx's
// error.
func (c *Collector) Collect(ctx context.Context, links []string) (*Collection, error) {
	acc := Collection{Records: models.ResultSet{}}
	total := len(links)

	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return &acc, err
		}

		log.Info("Visiting listing", "n", i+1, "of", total, "link", link)
		var err error
		if acc, err = c.visit(ctx, acc, i, link); err != nil {
			return &acc, err
		}

		if i < total-1 {
			if err := c.sleep(ctx, c.pause()); err != nil {
				return &acc, err
			}
		}
	}

	log.Info("Collection finished", "links", total, "records", len(acc.Records), "failed", len(acc.Failures))
	return &acc, nil
}

// visit folds one link into acc. A failure caused by ctx ending is not the
// listing's fault; it is returned instead of being recorded as a skip.
func (c *Collector) visit(ctx context.Context, acc Collection, i int, link string) (Collection, error) {
	rec, err := c.collectOne(ctx, link)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return acc, ctxErr
		}
		failure := &DetailError{Index: i, Link: link, Err: err}
		log.Warn("Skipping listing", "n", i+1, "link", link, "err", err)
		acc.Failures = append(acc.Failures, failure)
		if c.OnFailure != nil {
			c.OnFailure(failure)
		}
		return acc, nil
	}

	title := rec.Title
	if title == "" {
		title = "untitled"
	}
	log.Info("Collected listing", "n", i+1, "title", title)

	acc.Records = append(acc.Records, rec)
	if c.OnRecord != nil {
		c.OnRecord(len(acc.Records)-1, rec)
	}
	return acc, nil
}

func (c *Collector) collectOne(ctx context.Context, link string) (models.PropertyRecord, error) {
	page, err := c.pages.NewPage(ctx)
	if err != nil {
		return models.PropertyRecord{}, fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debug("Close page", "err", err)
		}
	}()

	if err := page.Goto(ctx, link, c.cfg.Timeout); err != nil {
		return models.PropertyRecord{}, err
	}

	html, err := page.Content(ctx)
	if err != nil {
		return models.PropertyRecord{}, err
	}

	rec, err := c.extractor.ExtractHTML(html)
	if err != nil {
		return models.PropertyRecord{}, err
	}
	rec.Link = link
	return rec, nil
}

func (c *Collector) pause() time.Duration {
	d := c.cfg.Delay
	if c.cfg.Jitter > 0 && c.jitter != nil {
		d += time.Duration(c.jitter(int64(c.cfg.Jitter)))
	}
	return d
}
