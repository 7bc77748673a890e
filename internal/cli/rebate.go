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

var (
	rebateFlags  batchFlags
	blockedHosts []string
)

// rebateCmd represents the rebate command
var rebateCmd = &cobra.Command{
	Use:   "rebate",
	Short: "Store export duty rebate rates in backups.\"RODTEP\"",
	Long: `Searches every HSN code in the foreign trade portal's code lookup and stores
the rebate rate it shows.

The portal sometimes sends the browser to an unrelated government site. Requests,
pop-ups and script navigations to the blocked hosts are suppressed for the whole
run.`,
	Example: `  # Whole catalogue
  dutyscrape rebate

  # Block an extra redirect host
  dutyscrape rebate --block-host india.gov.in --block-host services.india.gov.in`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, &rebateFlags, setupRebate)
	},
}

func init() {
	rootCmd.AddCommand(rebateCmd)
	rebateFlags.register(rebateCmd)
	rebateCmd.Flags().StringArrayVar(&blockedHosts, "block-host", []string{extract.DefaultRebateBlockedHost}, "Host to block while on the portal (repeatable)")
}

func setupRebate(ctx context.Context, a *app.Application, page browser.Page) (extract.Strategy, pipeline.Sink, []models.Country, error) {
	opts := extract.DefaultRebateOptions()
	opts.StepDelay = a.Config.RebateStepDelay
	opts.DiscoverDelay = a.Config.RebateDiscoverDelay
	opts.ActionTimeout = a.Config.ResultWait
	opts.BlockedHosts = append([]string{}, blockedHosts...)

	strategy := extract.NewRebate(page, opts)
	sink := store.NewColumnSink(a.DB, a.Config.BackupsTable, "RODTEP")
	return strategy, sink, nil, nil
}
