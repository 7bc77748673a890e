// internal/cli/root.go
package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/law-makers/dutyscrape/internal/app"
	"github.com/law-makers/dutyscrape/internal/config"
	"github.com/law-makers/dutyscrape/internal/secrets"
	"github.com/law-makers/dutyscrape/internal/ui"
)

// needsApp marks commands that run a batch against the store
const needsApp = "needs-app"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dutyscrape",
	Short: "Scrape HSN duty rates from government portals into a database",
	Long: `Dutyscrape reads the HSN code catalogue from the database, looks every code up
on a trade portal with a real browser, and stores the rate it finds.

- drawback     duty drawback rate (backups."DDB")
- rebate       export duty rebate rate (backups."RODTEP")
- import-duty  import tariff per destination country (import_duties)

Every code gets a stored result; codes the portal has no rate for, or that fail
to load, are stored as NULL.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the command tree with ctx, which is cancelled on interrupt.
// The application opened for the command is always closed before returning.
func Execute(ctx context.Context) error {
	defer func() {
		if a := takeActive(); a != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = a.Close(closeCtx)
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Set up logging for every command, and the application only for batch
	// commands (avoid connecting for -h/help or creds).
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		lc := logConfig(cmd)
		app.SetupLogging(lc, os.Stderr)
		ui.SetEnabled(!lc.JSONLog && os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stderr.Fd())))

		if cmd.Annotations[needsApp] != "true" || GetAppFromCmd(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd, secrets.Default())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()
		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}

		SetApp(cmd, a)
		return nil
	}
}

func init() {
	// Register centralized flags
	config.RegisterFlags(rootCmd)

	// Customize help and version flag descriptions
	rootCmd.Flags().BoolP("help", "h", false, "Help for dutyscrape")
	rootCmd.Flags().Bool("version", false, "Version for dutyscrape")

	// Disable the default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.SetHelpFunc(customHelpFunc)
	rootCmd.SetUsageFunc(customUsageFunc)
}

// logConfig reads only the logging flags so that logging works for commands
// that never load the full configuration.
func logConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Default()
	flags := cmd.Flags()
	if v, err := flags.GetBool("json"); err == nil && v {
		cfg.JSONLog = true
	}
	if v, err := flags.GetBool("verbose"); err == nil && v {
		cfg.LogLevel = "debug"
	}
	if v, err := flags.GetBool("quiet"); err == nil && v {
		cfg.LogLevel = "error"
	}
	return cfg
}
