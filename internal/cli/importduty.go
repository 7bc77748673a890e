package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/dutyscrape/internal/app"
	"github.com/law-makers/dutyscrape/internal/browser"
	"github.com/law-makers/dutyscrape/internal/country"
	"github.com/law-makers/dutyscrape/internal/extract"
	"github.com/law-makers/dutyscrape/internal/pipeline"
	"github.com/law-makers/dutyscrape/internal/store"
	"github.com/law-makers/dutyscrape/pkg/models"
)

var (
	importDutyFlags batchFlags
	countryCodes    []string
	countriesPath   string
	noEnsureColumns bool
)

// importDutyCmd represents the import-duty command
var importDutyCmd = &cobra.Command{
	Use:   "import-duty",
	Short: "Store import tariffs per country in import_duties",
	Long: `Queries the market access tariff tool for every country in the country list and
every HSN code, and stores the applied rate in that country's column of
import_duties. All codes are processed for the first country before moving on
to the next.

Missing country columns are added before the run unless --no-ensure-columns
is set.`,
	Example: `  # Every country in countries.json
  dutyscrape import-duty

  # Only the United States and China
  dutyscrape import-duty --country 842,156 --countries ./data/countries.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, &importDutyFlags, setupImportDuty)
	},
}

func init() {
	rootCmd.AddCommand(importDutyCmd)
	importDutyFlags.register(importDutyCmd)
	importDutyCmd.Flags().StringSliceVar(&countryCodes, "country", nil, "Restrict to these country codes (comma separated)")
	importDutyCmd.Flags().StringVar(&countriesPath, "countries", "", "Country list JSON (default $DUTYSCRAPE_COUNTRIES or countries.json)")
	importDutyCmd.Flags().BoolVar(&noEnsureColumns, "no-ensure-columns", false, "Do not add missing country columns")
}

func setupImportDuty(ctx context.Context, a *app.Application, page browser.Page) (extract.Strategy, pipeline.Sink, []models.Country, error) {
	path := a.Config.CountriesPath
	if countriesPath != "" {
		path = countriesPath
	}

	all, err := country.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}
	countries := country.Filter(all, countryCodes)
	if len(countries) == 0 {
		return nil, nil, nil, fmt.Errorf("no countries selected from %s", path)
	}
	log.Info().Str("path", path).Int("countries", len(countries)).Msg("Country list loaded")

	table := a.Config.ImportDutyTable
	if !noEnsureColumns {
		columns := make([]string, 0, len(countries))
		for _, c := range countries {
			columns = append(columns, c.Column)
		}
		added, err := a.DB.EnsureColumns(ctx, table, columns)
		if err != nil {
			return nil, nil, nil, err
		}
		if len(added) > 0 {
			log.Info().Strs("columns", added).Msg("Country columns created")
		}
	}

	opts := extract.DefaultImportDutyOptions()
	opts.Wait = a.Config.ResultWait

	return extract.NewImportDuty(page, opts), store.NewCountrySink(a.DB, table), countries, nil
}
