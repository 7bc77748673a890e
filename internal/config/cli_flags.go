package config

import (
	"github.com/spf13/cobra"
)

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	f := cmd.PersistentFlags()
	f.BoolP("verbose", "v", false, "Enable debug logging")
	f.BoolP("quiet", "q", false, "Suppress all output except errors")
	f.Bool("json", false, "Output logs and the run summary as JSON")
	f.String("env-file", DefaultEnvFile, "Dotenv file to load before reading the environment")

	f.String("database-url", "", "Store connection string (default $DATABASE_URL)")
	f.String("database-driver", "", "Store driver: pgx, postgres or sqlite (default $DATABASE_DRIVER or pgx)")
	f.String("catalogue-table", DefaultCatalogueTable, "Table holding the HSN code catalogue")
	f.String("catalogue-column", DefaultCatalogueColumn, "Column holding the HSN codes")
	f.Int("batch-size", DefaultCatalogueBatchSize, "Rows per catalogue page")

	f.String("proxy", "", "Set HTTP/SOCKS5 proxy for the browser (e.g., http://localhost:8080)")
	f.String("user-agent", "", "Custom browser user agent string")
	f.String("chrome-path", "", "Chrome/Chromium executable (default: auto-detect)")
	f.Bool("headless", DefaultBrowserHeadless, "Run the browser headless")
	f.Duration("navigation-timeout", DefaultNavigationTimeout, "Upper bound for loading one page")
	f.Float64("rate", DefaultNavigationsPerSecond, "Navigations per second allowed per host")

	f.String("metrics-addr", "", "Serve prometheus metrics on this address during the run (e.g., :9090)")
	f.Bool("progress", false, "Show a progress bar on stderr")
}
