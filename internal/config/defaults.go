package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel  = "info"
	DefaultJSONLog   = false
	DefaultEnvFile   = ".env"
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	DefaultDatabaseDriver     = "pgx"
	DefaultCatalogueTable     = "market_prices"
	DefaultCatalogueColumn    = "hsn_code"
	DefaultCatalogueBatchSize = 1000
	DefaultBackupsTable       = "backups"
	DefaultImportDutyTable    = "import_duties"
	DefaultCountriesPath      = "countries.json"

	DefaultNavigationTimeout   = 50 * time.Second
	DefaultResultWait          = 30 * time.Second
	DefaultDrawbackSettle      = 8 * time.Second
	DefaultRebateStepDelay     = 3 * time.Second
	DefaultRebateDiscoverDelay = 5 * time.Second
	DefaultWriteTimeout        = 30 * time.Second
	DefaultIdleConnections     = 2
	DefaultIdleQuiet           = 500 * time.Millisecond
	DefaultBrowserHeadless     = true

	DefaultNavigationsPerSecond = 1.0
	DefaultNavigationBurst      = 1
)
