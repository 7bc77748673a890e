package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/law-makers/dutyscrape/internal/app"
	"github.com/law-makers/dutyscrape/internal/browser"
	"github.com/law-makers/dutyscrape/internal/extract"
	"github.com/law-makers/dutyscrape/internal/pipeline"
	"github.com/law-makers/dutyscrape/internal/store"
	"github.com/law-makers/dutyscrape/pkg/models"
)

var drawbackFlags batchFlags

// drawbackCmd represents the drawback command
var drawbackCmd = &cobra.Command{
	Use:   "drawback",
	Short: "Store duty drawback rates in backups.\"DDB\"",
	Long: `Looks every HSN code up on the customs drawback schedule and stores the rate
from the result table. Codes without a schedule row are stored as NULL.`,
	Example: `  # Whole catalogue
  dutyscrape drawback

  # Two codes, with a progress bar
  dutyscrape drawback --hsn 080610,12345 --progress`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, &drawbackFlags, setupDrawback)
	},
}

func init() {
	rootCmd.AddCommand(drawbackCmd)
	drawbackFlags.register(drawbackCmd)
}

func setupDrawback(ctx context.Context, a *app.Application, page browser.Page) (extract.Strategy, pipeline.Sink, []models.Country, error) {
	opts := extract.DefaultDrawbackOptions()
	opts.Settle = a.Config.DrawbackSettle

	strategy := extract.NewDrawback(page, opts)
	sink := store.NewColumnSink(a.DB, a.Config.BackupsTable, "DDB")
	return strategy, sink, nil, nil
}
