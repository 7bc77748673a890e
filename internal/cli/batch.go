package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/dutyscrape/internal/app"
	"github.com/law-makers/dutyscrape/internal/browser"
	"github.com/law-makers/dutyscrape/internal/catalogue"
	"github.com/law-makers/dutyscrape/internal/extract"
	"github.com/law-makers/dutyscrape/internal/hsn"
	"github.com/law-makers/dutyscrape/internal/pipeline"
	"github.com/law-makers/dutyscrape/internal/store"
	"github.com/law-makers/dutyscrape/pkg/models"
)

// batchFlags are shared by every batch command
type batchFlags struct {
	codes  []string
	unique bool
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.codes, "hsn", nil, "Process only these codes instead of the catalogue (comma separated)")
	cmd.Flags().BoolVar(&f.unique, "unique", false, "Drop repeated codes after normalization")
	cmd.Annotations = map[string]string{needsApp: "true"}
}

// batchSetup builds the strategy and sink for one command once the browser is up
type batchSetup func(ctx context.Context, a *app.Application, page browser.Page) (extract.Strategy, pipeline.Sink, []models.Country, error)

// runBatch loads the code list, opens the browser and runs the pipeline
func runBatch(cmd *cobra.Command, flags *batchFlags, setup batchSetup) error {
	ctx := cmd.Context()
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	codes, err := loadCodes(ctx, a, flags)
	if err != nil {
		return err
	}
	if len(codes) == 0 {
		log.Warn().Msg("No valid HSN codes to process")
		return nil
	}

	session, err := a.EnsureBrowser(ctx)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}

	strategy, sink, countries, err := setup(ctx, a, session)
	if err != nil {
		return err
	}

	items := pipeline.Plan(codes, countries)

	opts := []pipeline.Option{
		pipeline.WithMetrics(a.Metrics),
		pipeline.WithRunID(a.RunID),
		pipeline.WithWriteTimeout(a.Config.WriteTimeout),
	}
	if a.Config.JSONLog {
		opts = append(opts, pipeline.WithReporter(pipeline.NewJSONReporter(os.Stdout)))
	} else {
		opts = append(opts, pipeline.WithReporter(pipeline.NewLineReporter(os.Stdout)))
	}
	if a.Config.Progress {
		opts = append(opts, pipeline.WithProgress(newProgressBar(len(items), strategy.Name())))
	}

	summary, err := pipeline.NewRunner(strategy, sink, opts...).Run(ctx, items)
	if err != nil {
		return err
	}

	if a.Config.JSONLog {
		if err := summary.WriteJSON(os.Stdout); err != nil {
			return err
		}
	} else {
		summary.WriteText(os.Stderr)
	}

	if summary.Interrupted {
		return fmt.Errorf("batch interrupted after %d of %d items", summary.Processed, summary.Planned)
	}
	return nil
}

// loadCodes returns the normalized code list, from --hsn or the catalogue.
// A catalogue failure aborts the batch before the browser starts.
func loadCodes(ctx context.Context, a *app.Application, flags *batchFlags) ([]string, error) {
	var codes []string
	var raw int

	if len(flags.codes) > 0 {
		for i := range flags.codes {
			flags.codes[i] = strings.TrimSpace(flags.codes[i])
		}
		raw = len(flags.codes)
		codes = hsn.NormalizeStrings(flags.codes)
	} else {
		pager := store.NewCataloguePager(a.DB, a.Config.CatalogueTable, a.Config.CatalogueColumn)
		rows, err := catalogue.NewFetcher(pager, a.Config.CatalogueBatchSize).FetchAll(ctx)
		if err != nil {
			log.Error().Err(err).Str("table", a.Config.CatalogueTable).Msg("Failed to fetch HSN catalogue")
			return nil, err
		}
		raw = len(rows)
		codes = hsn.NormalizeAll(rows)
	}

	if flags.unique {
		codes = hsn.Unique(codes)
	}

	log.Info().
		Int("raw", raw).
		Int("valid", len(codes)).
		Msg("HSN codes loaded")
	return codes, nil
}

func newProgressBar(total int, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(name),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}
