package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/dutyscrape/internal/browser"
	"github.com/law-makers/dutyscrape/pkg/models"
)

const (
	DefaultRebateURL           = "https://www.dgft.gov.in/CP/"
	DefaultRebateStepDelay     = 3 * time.Second
	DefaultRebateDiscoverDelay = 5 * time.Second
	DefaultRebateBlockedHost   = "india.gov.in"
)

// RebateOptions configures the export-incentive portal
type RebateOptions struct {
	URL string

	ComboSelector    string
	SearchSelector   string
	OptionSelector   string
	DiscoverSelector string
	ResultSelector   string

	// StepDelay follows typing and option selection, DiscoverDelay follows discover
	StepDelay     time.Duration
	DiscoverDelay time.Duration
	// ActionTimeout bounds each click and keystroke sequence
	ActionTimeout time.Duration

	BlockedHosts []string
}

// DefaultRebateOptions returns the live portal layout
func DefaultRebateOptions() RebateOptions {
	return RebateOptions{
		URL:              DefaultRebateURL,
		ComboSelector:    ".chosen-single",
		SearchSelector:   ".chosen-container-active input",
		OptionSelector:   ".chosen-container-active .chosen-results li.active-result",
		DiscoverSelector: "#discover",
		ResultSelector:   "#itchsRodtep",
		StepDelay:        DefaultRebateStepDelay,
		DiscoverDelay:    DefaultRebateDiscoverDelay,
		ActionTimeout:    DefaultResultWait,
		BlockedHosts:     []string{DefaultRebateBlockedHost},
	}
}

// Rebate drives the portal's code search form and reads the rebate rate
type Rebate struct {
	page browser.Page
	opts RebateOptions
}

// NewRebate creates the rebate strategy. Empty selectors take their defaults;
// BlockedHosts is kept as given when non-nil.
func NewRebate(page browser.Page, opts RebateOptions) *Rebate {
	d := DefaultRebateOptions()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&opts.URL, d.URL)
	fill(&opts.ComboSelector, d.ComboSelector)
	fill(&opts.SearchSelector, d.SearchSelector)
	fill(&opts.OptionSelector, d.OptionSelector)
	fill(&opts.DiscoverSelector, d.DiscoverSelector)
	fill(&opts.ResultSelector, d.ResultSelector)
	if opts.StepDelay < 0 {
		opts.StepDelay = 0
	}
	if opts.DiscoverDelay < 0 {
		opts.DiscoverDelay = 0
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = d.ActionTimeout
	}
	if opts.BlockedHosts == nil {
		opts.BlockedHosts = d.BlockedHosts
	}
	return &Rebate{page: page, opts: opts}
}

// Name implements Strategy
func (r *Rebate) Name() string { return "rebate" }

// Kind implements Strategy
func (r *Rebate) Kind() models.Kind { return models.KindRebate }

// Prepare installs the redirect guards. It must run once per session,
// before the first Extract.
func (r *Rebate) Prepare(ctx context.Context) error {
	if len(r.opts.BlockedHosts) == 0 {
		return nil
	}
	if err := r.page.BlockHosts(ctx, r.opts.BlockedHosts); err != nil {
		return fmt.Errorf("failed to install redirect guards: %w", err)
	}
	log.Info().Strs("hosts", r.opts.BlockedHosts).Msg("Redirect guards installed")
	return nil
}

// Extract implements Strategy
func (r *Rebate) Extract(ctx context.Context, item models.Item) models.Outcome {
	if err := r.page.Navigate(ctx, r.opts.URL); err != nil {
		return models.Failed(wrap(ErrCodeNavigation, "load "+r.opts.URL, err))
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"open code search", func() error { return r.page.Click(ctx, r.opts.ComboSelector, r.opts.ActionTimeout) }},
		{"type code", func() error { return r.page.Type(ctx, r.opts.SearchSelector, item.Code, r.opts.ActionTimeout) }},
		{"settle", func() error { return r.page.Sleep(ctx, r.opts.StepDelay) }},
		{"select code", func() error { return r.page.Click(ctx, r.opts.OptionSelector, r.opts.ActionTimeout) }},
		{"settle", func() error { return r.page.Sleep(ctx, r.opts.StepDelay) }},
		{"discover", func() error { return r.page.Click(ctx, r.opts.DiscoverSelector, r.opts.ActionTimeout) }},
		{"settle", func() error { return r.page.Sleep(ctx, r.opts.DiscoverDelay) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return models.Failed(wrap(ErrCodeInteraction, step.name, err))
		}
	}

	text, found, err := r.page.Text(ctx, r.opts.ResultSelector)
	if err != nil {
		return models.Failed(wrap(ErrCodeSelector, "read rebate rate", err))
	}
	text = strings.TrimSpace(text)
	if !found || text == "" {
		return models.Absent()
	}
	return models.Found(text)
}
