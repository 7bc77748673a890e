package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/dutyscrape/internal/browser"
	"github.com/law-makers/dutyscrape/pkg/models"
)

const (
	DefaultDrawbackURL    = "https://www.old.icegate.gov.in/Webappl/ccr_details_new.jsp"
	DefaultDrawbackSettle = 8 * time.Second
)

// DrawbackOptions configures the duty-drawback site
type DrawbackOptions struct {
	BaseURL string
	Settle  time.Duration
	// RowSelector and CellSelector locate the rate cell: the Row-th row
	// and the Cell-th cell within it, both zero-based.
	RowSelector  string
	CellSelector string
	Row          int
	Cell         int
}

// DefaultDrawbackOptions returns the live site layout
func DefaultDrawbackOptions() DrawbackOptions {
	return DrawbackOptions{
		BaseURL:      DefaultDrawbackURL,
		Settle:       DefaultDrawbackSettle,
		RowSelector:  ".rowh",
		CellSelector: ".cell",
		Row:          1,
		Cell:         3,
	}
}

// Drawback reads the drawback rate from the customs result table
type Drawback struct {
	page browser.Page
	opts DrawbackOptions
}

// NewDrawback creates the drawback strategy
func NewDrawback(page browser.Page, opts DrawbackOptions) *Drawback {
	d := DefaultDrawbackOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = d.BaseURL
	}
	if opts.Settle < 0 {
		opts.Settle = 0
	}
	if opts.RowSelector == "" {
		opts.RowSelector, opts.Row = d.RowSelector, d.Row
	}
	if opts.CellSelector == "" {
		opts.CellSelector, opts.Cell = d.CellSelector, d.Cell
	}
	return &Drawback{page: page, opts: opts}
}

// Name implements Strategy
func (d *Drawback) Name() string { return "drawback" }

// Kind implements Strategy
func (d *Drawback) Kind() models.Kind { return models.KindDrawback }

// URL builds the result page address for code
func (d *Drawback) URL(code string) string {
	return d.opts.BaseURL + "?cth_duty_nw=" + url.QueryEscape(code)
}

// Extract implements Strategy
func (d *Drawback) Extract(ctx context.Context, item models.Item) models.Outcome {
	target := d.URL(item.Code)
	if err := d.page.Navigate(ctx, target); err != nil {
		return models.Failed(wrap(ErrCodeNavigation, "load "+target, err))
	}

	// the table is filled in by script after load
	if err := d.page.Sleep(ctx, d.opts.Settle); err != nil {
		return models.Failed(wrap(ErrCodeInteraction, "settle", err))
	}

	html, err := d.page.HTML(ctx)
	if err != nil {
		return models.Failed(wrap(ErrCodeSelector, "read result table", err))
	}

	token, ok, err := d.cell(html)
	if err != nil {
		return models.Failed(wrap(ErrCodeSelector, "parse result table", err))
	}
	if !ok {
		log.Debug().Str("hsn", item.Code).Msg("Drawback row not present")
		return models.Absent()
	}
	return models.Found(token)
}

func (d *Drawback) cell(html string) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false, fmt.Errorf("failed to parse HTML: %w", err)
	}

	rows := doc.Find(d.opts.RowSelector)
	if rows.Length() <= d.opts.Row {
		return "", false, nil
	}
	cells := rows.Eq(d.opts.Row).Find(d.opts.CellSelector)
	if cells.Length() <= d.opts.Cell {
		return "", false, nil
	}
	return strings.TrimSpace(cells.Eq(d.opts.Cell).Text()), true, nil
}
