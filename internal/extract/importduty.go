package extract

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/law-makers/dutyscrape/internal/browser"
	"github.com/law-makers/dutyscrape/pkg/models"
)

const (
	DefaultImportDutyURL      = "https://www.macmap.org/en//query/results"
	DefaultImportDutyPartner  = "699"
	DefaultImportDutyLevel    = 6
	DefaultImportDutySelector = "#customs-duties-results-section .customs-tariff-info .customs-tariff-rate-details"
	DefaultResultWait         = 30 * time.Second
)

// ImportDutyOptions configures the market-access site
type ImportDutyOptions struct {
	BaseURL  string
	Partner  string
	Level    int
	Selector string
	Wait     time.Duration
}

// DefaultImportDutyOptions returns the live site layout
func DefaultImportDutyOptions() ImportDutyOptions {
	return ImportDutyOptions{
		BaseURL:  DefaultImportDutyURL,
		Partner:  DefaultImportDutyPartner,
		Level:    DefaultImportDutyLevel,
		Selector: DefaultImportDutySelector,
		Wait:     DefaultResultWait,
	}
}

// ImportDuty reads one country's applied tariff for a code
type ImportDuty struct {
	page browser.Page
	opts ImportDutyOptions
}

// NewImportDuty creates the import-duty strategy
func NewImportDuty(page browser.Page, opts ImportDutyOptions) *ImportDuty {
	d := DefaultImportDutyOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = d.BaseURL
	}
	if opts.Partner == "" {
		opts.Partner = d.Partner
	}
	if opts.Level <= 0 {
		opts.Level = d.Level
	}
	if opts.Selector == "" {
		opts.Selector = d.Selector
	}
	if opts.Wait <= 0 {
		opts.Wait = d.Wait
	}
	return &ImportDuty{page: page, opts: opts}
}

// Name implements Strategy
func (s *ImportDuty) Name() string { return "import-duty" }

// Kind implements Strategy
func (s *ImportDuty) Kind() models.Kind { return models.KindImportDuty }

// URL builds the query address for a reporter country and product code.
// Parameter order matches the site's own links.
func (s *ImportDuty) URL(reporter, code string) string {
	return fmt.Sprintf("%s?reporter=%s&partner=%s&product=%s&level=%d",
		s.opts.BaseURL, url.QueryEscape(reporter), url.QueryEscape(s.opts.Partner), url.QueryEscape(code), s.opts.Level)
}

// Extract implements Strategy
func (s *ImportDuty) Extract(ctx context.Context, item models.Item) models.Outcome {
	if item.Country == nil {
		return models.Failed(NewExtractError(ErrCodeNavigation, "item "+item.Code+" has no country", nil))
	}

	target := s.URL(item.Country.Code, item.Code)
	if err := s.page.Navigate(ctx, target); err != nil {
		return models.Failed(wrap(ErrCodeNavigation, "load "+target, err))
	}

	if err := s.page.WaitVisible(ctx, s.opts.Selector, s.opts.Wait); err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			// no tariff line for this reporter/product
			return models.Absent()
		}
		return models.Failed(wrap(ErrCodeSelector, "wait for tariff rate", err))
	}

	text, found, err := s.page.Text(ctx, s.opts.Selector)
	if err != nil {
		return models.Failed(wrap(ErrCodeSelector, "read tariff rate", err))
	}
	if !found {
		return models.Absent()
	}
	return models.Found(strings.TrimSpace(text))
}
