package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

type fakeSecrets map[string]string

func (f fakeSecrets) Get(name string) (string, error) {
	if v, ok := f[name]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

// clearEnv unsets keys for the duration of the test
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func newCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	RegisterFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	return cmd
}

func noEnvFile(t *testing.T) string {
	return "--env-file=" + filepath.Join(t.TempDir(), "missing.env")
}

var envKeys = []string{"DATABASE_URL", "SUPABASE_DB_URL", "DATABASE_DRIVER", "DUTYSCRAPE_PROXY", "DUTYSCRAPE_COUNTRIES", "DUTYSCRAPE_HEADLESS", "DUTYSCRAPE_NAVIGATION_TIMEOUT"}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, envKeys...)
	t.Setenv("DATABASE_URL", "postgres://localhost/duty")

	cfg, err := Load(newCmd(t, noEnvFile(t)), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.NavigationTimeout != 50*time.Second || cfg.ResultWait != 30*time.Second {
		t.Errorf("Unexpected timeouts: %v %v", cfg.NavigationTimeout, cfg.ResultWait)
	}
	if cfg.CatalogueBatchSize != 1000 || cfg.CatalogueTable != "market_prices" {
		t.Errorf("Unexpected catalogue defaults: %+v", cfg)
	}
	if cfg.DatabaseDriver != "pgx" || cfg.DatabaseURLSource != "DATABASE_URL" {
		t.Errorf("Unexpected store config: %s %s", cfg.DatabaseDriver, cfg.DatabaseURLSource)
	}
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	clearEnv(t, envKeys...)
	t.Setenv("DATABASE_URL", "postgres://env/duty")
	t.Setenv("DUTYSCRAPE_PROXY", "http://env:8080")

	cmd := newCmd(t, noEnvFile(t),
		"--database-url=file:local.db",
		"--database-driver=sqlite",
		"--proxy=http://flag:8080",
		"--navigation-timeout=10s",
		"--headless=false",
		"--rate=0.5",
		"--verbose",
	)
	cfg, err := Load(cmd, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DatabaseURL != "file:local.db" || cfg.DatabaseURLSource != "flag" {
		t.Errorf("Expected flag database URL, got %s (%s)", cfg.DatabaseURL, cfg.DatabaseURLSource)
	}
	if cfg.Proxy != "http://flag:8080" {
		t.Errorf("Expected flag proxy, got %s", cfg.Proxy)
	}
	if cfg.NavigationTimeout != 10*time.Second || cfg.BrowserHeadless || cfg.NavigationsPerSecond != 0.5 {
		t.Errorf("Unexpected browser config: %+v", cfg)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected debug level, got %s", cfg.LogLevel)
	}
}

func TestLoadDotenv(t *testing.T) {
	clearEnv(t, envKeys...)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SUPABASE_DB_URL=postgres://dotenv/duty\nDUTYSCRAPE_COUNTRIES=/etc/countries.json\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(newCmd(t, "--env-file="+path), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DatabaseURL != "postgres://dotenv/duty" || cfg.DatabaseURLSource != "SUPABASE_DB_URL" {
		t.Errorf("Expected URL from dotenv alias, got %s (%s)", cfg.DatabaseURL, cfg.DatabaseURLSource)
	}
	if cfg.CountriesPath != "/etc/countries.json" {
		t.Errorf("Expected countries path from dotenv, got %s", cfg.CountriesPath)
	}
}

func TestLoadSecretFallback(t *testing.T) {
	clearEnv(t, envKeys...)

	cfg, err := Load(newCmd(t, noEnvFile(t)), fakeSecrets{SecretDatabaseURL: "postgres://keyring/duty"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DatabaseURL != "postgres://keyring/duty" || cfg.DatabaseURLSource != "keyring" {
		t.Errorf("Expected keyring URL, got %s (%s)", cfg.DatabaseURL, cfg.DatabaseURLSource)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		want string
	}{
		{"missing url", nil, nil, "database URL"},
		{"bad driver", []string{"--database-driver=mysql"}, map[string]string{"DATABASE_URL": "x"}, "unknown database driver"},
		{"bad table", []string{"--catalogue-table=market prices"}, map[string]string{"DATABASE_URL": "x"}, "not a valid identifier"},
		{"bad batch", []string{"--batch-size=0"}, map[string]string{"DATABASE_URL": "x"}, "batch size"},
		{"bad rate", []string{"--rate=0"}, map[string]string{"DATABASE_URL": "x"}, "navigation rate"},
		{"bad env duration", nil, map[string]string{"DATABASE_URL": "x", "DUTYSCRAPE_NAVIGATION_TIMEOUT": "soon"}, "DUTYSCRAPE_NAVIGATION_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t, envKeys...)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(newCmd(t, append([]string{noEnvFile(t)}, tt.args...)...), nil)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
