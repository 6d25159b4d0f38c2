package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"caixa_scrooper/browser"
	"caixa_scrooper/config"
	"caixa_scrooper/extract"
	"caixa_scrooper/models"
)

// State is a step of the search form flow. The flow is linear; each state
// has exactly one successor.
type State int

const (
	StateStart State = iota
	StateLoaded
	StateRegionSelected
	StateLocalitySelected
	StateFirstStepSubmitted
	StateSecondStepSubmitted
	StateResultsVisible
	StateLinksHarvested
)

var stateNames = [...]string{
	"start",
	"loaded",
	"region_selected",
	"locality_selected",
	"first_step_submitted",
	"second_step_submitted",
	"results_visible",
	"links_harvested",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

var ErrNavigation = errors.New("search navigation failed")

// NavigationError reports the state the machine failed to reach. It aborts
// the whole run.
type NavigationError struct {
	State State
	Err   error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation failed reaching %s: %v", e.State, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

func (e *NavigationError) Is(target error) bool { return target == ErrNavigation }

// Navigator fills the search form on a single page and harvests the detail
// links from the results. No step is retried.
type Navigator struct {
	page  browser.Page
	site  *config.SiteConfig
	sleep Sleeper
	state State
	links []string

	// OnTransition, when set, is called after every successful step.
	OnTransition func(from, to State)
}

func NewNavigator(page browser.Page, site *config.SiteConfig) *Navigator {
	return &Navigator{page: page, site: site, sleep: SleepContext}
}

// SetSleeper replaces the settle-delay sleeper.
func (n *Navigator) SetSleeper(s Sleeper) {
	n.sleep = s
}

func (n *Navigator) State() State {
	return n.state
}

// Run advances through every state and returns the harvested links in
// document order.
func (n *Navigator) Run(ctx context.Context, criteria models.SearchCriteria) ([]string, error) {
	for n.state != StateLinksHarvested {
		if err := n.Step(ctx, criteria); err != nil {
			return nil, err
		}
	}
	return n.links, nil
}

// Step performs the single transition out of the current state.
func (n *Navigator) Step(ctx context.Context, criteria models.SearchCriteria) error {
	var (
		next State
		err  error
	)

	switch n.state {
	case StateStart:
		next, err = StateLoaded, n.load(ctx)
	case StateLoaded:
		next, err = StateRegionSelected, n.choose(ctx, n.site.Selectors.Region, criteria.Region)
	case StateRegionSelected:
		next, err = StateLocalitySelected, n.choose(ctx, n.site.Selectors.Locality, criteria.Locality)
	case StateLocalitySelected:
		next, err = StateFirstStepSubmitted, n.submit(ctx)
	case StateFirstStepSubmitted:
		next, err = StateSecondStepSubmitted, n.submit(ctx)
	case StateSecondStepSubmitted:
		next, err = StateResultsVisible, n.waitResults(ctx)
	case StateResultsVisible:
		next, err = StateLinksHarvested, n.harvest(ctx)
	default:
		return nil
	}

	if err != nil {
		return &NavigationError{State: next, Err: err}
	}

	prev := n.state
	n.state = next
	log.Debug("Search step", "from", prev, "to", next)
	if n.OnTransition != nil {
		n.OnTransition(prev, next)
	}
	return nil
}

func (n *Navigator) load(ctx context.Context) error {
	url := n.site.SearchURL()
	log.Info("Loading search page", "url", url)
	return n.page.Goto(ctx, url, n.site.Timeouts.SearchLoad())
}

// choose selects value in a dropdown and waits for dependent controls, which
// are populated asynchronously, to settle.
func (n *Navigator) choose(ctx context.Context, selector, value string) error {
	timeout := n.site.Timeouts.Visible()
	if err := n.page.WaitVisible(ctx, selector, timeout); err != nil {
		return err
	}
	if err := n.page.Select(ctx, selector, value, timeout); err != nil {
		return err
	}
	return n.sleep(ctx, n.site.SettleDelay())
}

func (n *Navigator) submit(ctx context.Context) error {
	next := n.site.Selectors.Next
	if err := n.page.WaitVisible(ctx, next, n.site.Timeouts.Visible()); err != nil {
		return err
	}
	return n.page.ClickAndWaitNavigation(ctx, next, n.site.Timeouts.Navigation())
}

func (n *Navigator) waitResults(ctx context.Context) error {
	if err := n.page.WaitAttached(ctx, n.site.Selectors.Results, n.site.Timeouts.Results()); err != nil {
		return fmt.Errorf("no results or page structure changed: %w", err)
	}
	return nil
}

func (n *Navigator) harvest(ctx context.Context) error {
	html, err := n.page.Content(ctx)
	if err != nil {
		return err
	}
	links, err := extract.HarvestLinksHTML(html, n.site.BaseURL, n.site.DetailLink.HrefContains, n.site.DetailLink.TextContains)
	if err != nil {
		return fmt.Errorf("parse results page: %w", err)
	}
	n.links = links
	return nil
}
