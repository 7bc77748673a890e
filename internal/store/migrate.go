package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migration directions
const (
	Up   = "up"
	Down = "down"
)

// Migrate applies the embedded destination-table migrations. It opens and
// closes its own connection because closing a migrate instance closes the
// underlying database.
func Migrate(driver, url, direction string) error {
	if !ValidDriver(driver) {
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	sqlDB, err := sql.Open(driver, url)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	var dbDriver database.Driver
	if driver == DriverSQLite {
		dbDriver, err = sqlite.WithInstance(sqlDB, &sqlite.Config{})
	} else {
		dbDriver, err = postgres.WithInstance(sqlDB, &postgres.Config{})
	}
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		dbDriver.Close()
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, dbDriver)
	if err != nil {
		dbDriver.Close()
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer m.Close()

	switch direction {
	case Up:
		err = m.Up()
	case Down:
		err = m.Down()
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations %s: %w", direction, err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Warn().Err(err).Msg("Could not get migration version")
	} else {
		log.Info().Str("direction", direction).Uint("version", version).Bool("dirty", dirty).Msg("Migration completed")
	}
	return nil
}
