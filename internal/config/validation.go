package config

import (
	"fmt"
	"regexp"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validate(c *Config) error {
	switch c.DatabaseDriver {
	case "pgx", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database URL is not set (use DATABASE_URL, --database-url or 'dutyscrape creds set')")
	}
	for name, v := range map[string]string{
		"catalogue table":   c.CatalogueTable,
		"catalogue column":  c.CatalogueColumn,
		"backups table":     c.BackupsTable,
		"import duty table": c.ImportDutyTable,
	} {
		if !identifier.MatchString(v) {
			return fmt.Errorf("%s %q is not a valid identifier", name, v)
		}
	}
	if c.CatalogueBatchSize <= 0 {
		return fmt.Errorf("batch size must be > 0")
	}
	if c.NavigationTimeout <= 0 || c.ResultWait <= 0 || c.WriteTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0")
	}
	if c.DrawbackSettle < 0 || c.RebateStepDelay < 0 || c.RebateDiscoverDelay < 0 {
		return fmt.Errorf("settle delays must not be negative")
	}
	if c.IdleConnections < 0 || c.IdleQuiet <= 0 {
		return fmt.Errorf("network idle policy must allow >= 0 connections over a positive quiet period")
	}
	if c.NavigationsPerSecond <= 0 {
		return fmt.Errorf("navigation rate must be > 0")
	}
	return nil
}
