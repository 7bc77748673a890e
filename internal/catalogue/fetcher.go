// Package catalogue reads the complete HSN code catalogue in fixed-size pages.
package catalogue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBatchSize is the page size used when none is configured
const DefaultBatchSize = 1000

// ErrFetch marks a catalogue read failure. It is the only error that aborts a batch.
var ErrFetch = errors.New("catalogue fetch failed")

// Pager returns the raw code values in the inclusive row range [from, to].
// An empty page means the catalogue is exhausted.
type Pager interface {
	Page(ctx context.Context, from, to int) ([]any, error)
}

// Fetcher pulls every page from a Pager until an empty page comes back
type Fetcher struct {
	pager     Pager
	batchSize int
}

// NewFetcher creates a Fetcher. A non-positive batch size falls back to DefaultBatchSize.
func NewFetcher(p Pager, batchSize int) *Fetcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Fetcher{pager: p, batchSize: batchSize}
}

// FetchAll concatenates pages in retrieval order. Any page error aborts the
// whole fetch and is returned wrapped in ErrFetch.
func (f *Fetcher) FetchAll(ctx context.Context) ([]any, error) {
	start := time.Now()
	var all []any
	pages := 0

	for offset := 0; ; offset += f.batchSize {
		rows, err := f.pager.Page(ctx, offset, offset+f.batchSize-1)
		pages++
		if err != nil {
			log.Error().Err(err).Int("offset", offset).Msg("Catalogue page query failed")
			return nil, fmt.Errorf("%w: range %d-%d: %w", ErrFetch, offset, offset+f.batchSize-1, err)
		}
		if len(rows) == 0 {
			break
		}
		all = append(all, rows...)
		log.Debug().Int("offset", offset).Int("rows", len(rows)).Msg("Catalogue page fetched")
	}

	log.Info().
		Int("rows", len(all)).
		Int("queries", pages).
		Dur("elapsed", time.Since(start)).
		Msg("Catalogue fetched")

	return all, nil
}
