package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Store
	DatabaseDriver     string
	DatabaseURL        string
	DatabaseURLSource  string
	CatalogueTable     string
	CatalogueColumn    string
	CatalogueBatchSize int
	BackupsTable       string
	ImportDutyTable    string
	WriteTimeout       time.Duration

	// Countries
	CountriesPath string

	// Browser
	BrowserHeadless   bool
	ChromePath        string
	UserAgent         string
	Proxy             string
	NavigationTimeout time.Duration
	IdleConnections   int
	IdleQuiet         time.Duration

	// Site waits
	ResultWait          time.Duration
	DrawbackSettle      time.Duration
	RebateStepDelay     time.Duration
	RebateDiscoverDelay time.Duration

	// Rate Limiting
	NavigationsPerSecond float64
	NavigationBurst      int

	// Output
	MetricsAddr string
	Progress    bool
}

// SecretSource supplies the database URL when nothing else configures it
type SecretSource interface {
	Get(name string) (string, error)
}

// SecretDatabaseURL is the secret name consulted by Load
const SecretDatabaseURL = "database_url"

// Default returns a Config holding only defaults
func Default() *Config {
	return &Config{
		LogLevel:             DefaultLogLevel,
		JSONLog:              DefaultJSONLog,
		DatabaseDriver:       DefaultDatabaseDriver,
		CatalogueTable:       DefaultCatalogueTable,
		CatalogueColumn:      DefaultCatalogueColumn,
		CatalogueBatchSize:   DefaultCatalogueBatchSize,
		BackupsTable:         DefaultBackupsTable,
		ImportDutyTable:      DefaultImportDutyTable,
		WriteTimeout:         DefaultWriteTimeout,
		CountriesPath:        DefaultCountriesPath,
		BrowserHeadless:      DefaultBrowserHeadless,
		UserAgent:            DefaultUserAgent,
		NavigationTimeout:    DefaultNavigationTimeout,
		IdleConnections:      DefaultIdleConnections,
		IdleQuiet:            DefaultIdleQuiet,
		ResultWait:           DefaultResultWait,
		DrawbackSettle:       DefaultDrawbackSettle,
		RebateStepDelay:      DefaultRebateStepDelay,
		RebateDiscoverDelay:  DefaultRebateDiscoverDelay,
		NavigationsPerSecond: DefaultNavigationsPerSecond,
		NavigationBurst:      DefaultNavigationBurst,
	}
}

// Load builds a Config by combining defaults, a dotenv file, environment
// variables, CLI flags and finally the secret store for a missing database URL.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command, secrets SecretSource) (*Config, error) {
	cfg := Default()

	envFile := DefaultEnvFile
	if cmd != nil {
		if f := cmd.Flags().Lookup("env-file"); f != nil && f.Value.String() != "" {
			envFile = f.Value.String()
		}
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if err := fromEnv(cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if cmd != nil {
		fromFlags(cfg, cmd)
	}

	if cfg.DatabaseURL == "" && secrets != nil {
		if v, err := secrets.Get(SecretDatabaseURL); err == nil && v != "" {
			cfg.DatabaseURL = v
			cfg.DatabaseURLSource = "keyring"
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func fromEnv(cfg *Config) error {
	for _, key := range []string{"DATABASE_URL", "SUPABASE_DB_URL"} {
		if v := os.Getenv(key); v != "" {
			cfg.DatabaseURL = v
			cfg.DatabaseURLSource = key
			break
		}
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.DatabaseDriver = v
	}
	if v := os.Getenv("DUTYSCRAPE_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("DUTYSCRAPE_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("DUTYSCRAPE_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("DUTYSCRAPE_COUNTRIES"); v != "" {
		cfg.CountriesPath = v
	}
	if v := os.Getenv("DUTYSCRAPE_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DUTYSCRAPE_HEADLESS: %w", err)
		}
		cfg.BrowserHeadless = b
	}
	if v := os.Getenv("DUTYSCRAPE_NAVIGATION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DUTYSCRAPE_NAVIGATION_TIMEOUT: %w", err)
		}
		cfg.NavigationTimeout = d
	}
	return nil
}

func fromFlags(cfg *Config, cmd *cobra.Command) {
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if f := flags.Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}

	str("database-driver", &cfg.DatabaseDriver)
	str("catalogue-table", &cfg.CatalogueTable)
	str("catalogue-column", &cfg.CatalogueColumn)
	str("proxy", &cfg.Proxy)
	str("user-agent", &cfg.UserAgent)
	str("chrome-path", &cfg.ChromePath)
	str("metrics-addr", &cfg.MetricsAddr)
	if f := flags.Lookup("database-url"); f != nil && f.Changed {
		cfg.DatabaseURL = f.Value.String()
		cfg.DatabaseURLSource = "flag"
	}

	if f := flags.Lookup("batch-size"); f != nil && f.Changed {
		if n, err := strconv.Atoi(f.Value.String()); err == nil {
			cfg.CatalogueBatchSize = n
		}
	}
	if f := flags.Lookup("navigation-timeout"); f != nil && f.Changed {
		if d, err := time.ParseDuration(f.Value.String()); err == nil {
			cfg.NavigationTimeout = d
		}
	}
	if f := flags.Lookup("rate"); f != nil && f.Changed {
		if r, err := strconv.ParseFloat(f.Value.String(), 64); err == nil {
			cfg.NavigationsPerSecond = r
		}
	}
	if f := flags.Lookup("headless"); f != nil && f.Changed {
		cfg.BrowserHeadless = f.Value.String() == "true"
	}
	if f := flags.Lookup("progress"); f != nil {
		cfg.Progress = f.Value.String() == "true"
	}
	if f := flags.Lookup("json"); f != nil {
		if f.Value.String() == "true" {
			cfg.JSONLog = true
		}
	}
	if f := flags.Lookup("verbose"); f != nil {
		if f.Value.String() == "true" {
			cfg.LogLevel = "debug"
		}
	}
	if f := flags.Lookup("quiet"); f != nil {
		if f.Value.String() == "true" {
			cfg.LogLevel = "error"
		}
	}
}
