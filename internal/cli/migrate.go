package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/law-makers/dutyscrape/internal/config"
	"github.com/law-makers/dutyscrape/internal/secrets"
	"github.com/law-makers/dutyscrape/internal/store"
	"github.com/law-makers/dutyscrape/internal/ui"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate <up|down>",
	Short: "Create or drop the destination tables",
	Long: `Applies the embedded migrations that create backups and import_duties.
The catalogue table is never touched.`,
	Example: `  dutyscrape migrate up
  dutyscrape migrate down --database-driver sqlite --database-url ./duty.db`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{store.Up, store.Down},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd, secrets.Default())
		if err != nil {
			return err
		}
		if err := store.Migrate(cfg.DatabaseDriver, cfg.DatabaseURL, args[0]); err != nil {
			return err
		}
		if !cfg.JSONLog {
			fmt.Println(ui.Success("✓ Migrations " + args[0] + " applied"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
