package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/law-makers/dutyscrape/internal/catalogue"
	"github.com/law-makers/dutyscrape/pkg/models"
)

func setup(t testing.TB) *DB {
	t.Helper()

	url := filepath.Join(t.TempDir(), "dutyscrape.db")
	require.NoError(t, Migrate(DriverSQLite, url, Up))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Open(ctx, Options{Driver: DriverSQLite, URL: url, MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(v float64) *float64 { return &v }

type backupRow struct {
	Code   int64           `db:"hsn_code"`
	DDB    sql.NullFloat64 `db:"DDB"`
	Rodtep sql.NullFloat64 `db:"RODTEP"`
}

func backups(t *testing.T, db *DB) []backupRow {
	t.Helper()
	var rows []backupRow
	require.NoError(t, db.Select(&rows, `SELECT hsn_code, "DDB", "RODTEP" FROM backups ORDER BY hsn_code`))
	return rows
}

func TestColumnSinkCreatesRow(t *testing.T) {
	db := setup(t)
	sink := NewColumnSink(db, "backups", "DDB")

	require.NoError(t, sink.Write(context.Background(), models.Item{Code: "080610"}, ptr(3.5)))

	rows := backups(t, db)
	require.Len(t, rows, 1)
	require.Equal(t, int64(80610), rows[0].Code)
	require.True(t, rows[0].DDB.Valid)
	require.Equal(t, 3.5, rows[0].DDB.Float64)
	require.False(t, rows[0].Rodtep.Valid)
}

func TestColumnSinkIdempotent(t *testing.T) {
	db := setup(t)
	sink := NewColumnSink(db, "backups", "DDB")
	ctx := context.Background()
	item := models.Item{Code: "123456"}

	require.NoError(t, sink.Write(ctx, item, ptr(1.25)))
	once := backups(t, db)
	require.NoError(t, sink.Write(ctx, item, ptr(1.25)))
	twice := backups(t, db)

	require.Equal(t, once, twice)
}

func TestColumnSinkPreservesOtherColumns(t *testing.T) {
	db := setup(t)
	ctx := context.Background()
	item := models.Item{Code: "012345"}

	require.NoError(t, NewColumnSink(db, "backups", "RODTEP").Write(ctx, item, ptr(0.9)))
	require.NoError(t, NewColumnSink(db, "backups", "DDB").Write(ctx, item, ptr(2)))
	require.NoError(t, NewColumnSink(db, "backups", "DDB").Write(ctx, item, nil))

	rows := backups(t, db)
	require.Len(t, rows, 1)
	require.False(t, rows[0].DDB.Valid, "null write should clear the targeted column")
	require.True(t, rows[0].Rodtep.Valid)
	require.Equal(t, 0.9, rows[0].Rodtep.Float64)
}

func TestCountrySink(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	usa := &models.Country{Code: "842", Name: "United States", Column: "UNITED_STATES"}
	aus := &models.Country{Code: "36", Name: "Australia", Column: "AUSTRALIA"}

	added, err := db.EnsureColumns(ctx, "import_duties", []string{usa.Column, aus.Column})
	require.NoError(t, err)
	require.Equal(t, []string{"UNITED_STATES", "AUSTRALIA"}, added)

	added, err = db.EnsureColumns(ctx, "import_duties", []string{usa.Column, aus.Column})
	require.NoError(t, err)
	require.Empty(t, added)

	sink := NewCountrySink(db, "import_duties")
	require.NoError(t, sink.Write(ctx, models.Item{Code: "080610", Country: usa}, ptr(4.2)))
	require.NoError(t, sink.Write(ctx, models.Item{Code: "080610", Country: aus}, nil))
	require.NoError(t, sink.Write(ctx, models.Item{Code: "080610", Country: aus}, ptr(5)))
	require.NoError(t, sink.Write(ctx, models.Item{Code: "080610", Country: aus}, ptr(5)))

	type dutyRow struct {
		Code int64           `db:"hsn_code"`
		USA  sql.NullFloat64 `db:"UNITED_STATES"`
		AUS  sql.NullFloat64 `db:"AUSTRALIA"`
	}
	var rows []dutyRow
	require.NoError(t, db.Select(&rows, `SELECT hsn_code, "UNITED_STATES", "AUSTRALIA" FROM import_duties`))
	require.Len(t, rows, 1)
	require.Equal(t, int64(80610), rows[0].Code)
	require.Equal(t, 4.2, rows[0].USA.Float64)
	require.Equal(t, 5.0, rows[0].AUS.Float64)
}

func TestEnsureColumnsPartial(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	_, err := db.Exec(`ALTER TABLE import_duties ADD COLUMN "CHINA" DOUBLE PRECISION`)
	require.NoError(t, err)

	added, err := db.EnsureColumns(ctx, "import_duties", []string{"CHINA", "GERMANY", "JAPAN", "GERMANY"})
	require.NoError(t, err)
	require.Equal(t, []string{"GERMANY", "JAPAN"}, added)

	cols, err := db.TableColumns(ctx, "import_duties")
	require.NoError(t, err)
	require.Equal(t, []string{"hsn_code", "CHINA", "GERMANY", "JAPAN"}, cols)

	sink := NewCountrySink(db, "import_duties")
	japan := &models.Country{Code: "392", Name: "Japan", Column: "JAPAN"}
	require.NoError(t, sink.Write(ctx, models.Item{Code: "080610", Country: japan}, ptr(1.5)))

	var got sql.NullFloat64
	require.NoError(t, db.Get(&got, `SELECT "JAPAN" FROM import_duties WHERE hsn_code = 80610`))
	require.True(t, got.Valid)
	require.Equal(t, 1.5, got.Float64)
}

func TestTableColumnsUnknownName(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	cols, err := db.TableColumns(ctx, "import_duties")
	require.NoError(t, err)
	require.NotContains(t, cols, "UNITED_STATES")

	added, err := db.EnsureColumns(ctx, "import_duties", []string{"UNITED_STATES"})
	require.NoError(t, err)
	require.Equal(t, []string{"UNITED_STATES"}, added)
}

func TestEnsureColumnsMissingTable(t *testing.T) {
	db := setup(t)
	added, err := db.EnsureColumns(context.Background(), "no_such_table", []string{"CHINA"})
	require.Error(t, err)
	require.Empty(t, added)

	_, err = db.Exec(`CREATE TABLE no_such_table (hsn_code INTEGER)`)
	require.NoError(t, err)
	cols, err := db.TableColumns(context.Background(), "no_such_table")
	require.NoError(t, err)
	require.Equal(t, []string{"hsn_code"}, cols)
}

func TestCountrySinkRequiresCountry(t *testing.T) {
	db := setup(t)
	err := NewCountrySink(db, "import_duties").Write(context.Background(), models.Item{Code: "080610"}, ptr(1))
	require.Error(t, err)
}

func TestCountrySinkMissingColumn(t *testing.T) {
	db := setup(t)
	item := models.Item{Code: "080610", Country: &models.Country{Code: "1", Name: "Nowhere", Column: "NOWHERE"}}
	require.Error(t, NewCountrySink(db, "import_duties").Write(context.Background(), item, ptr(1)))
}

func TestCataloguePager(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	_, err := db.Exec(`CREATE TABLE market_prices (id INTEGER PRIMARY KEY, hsn_code INTEGER)`)
	require.NoError(t, err)
	for _, code := range []int64{1234567, 12345, 123456, 1234, 12345} {
		_, err := db.Exec(`INSERT INTO market_prices (hsn_code) VALUES (?)`, code)
		require.NoError(t, err)
	}

	pager := NewCataloguePager(db, "market_prices", "hsn_code")
	rows, err := catalogue.NewFetcher(pager, 2).FetchAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []any{int64(1234), int64(12345), int64(12345), int64(123456), int64(1234567)}, rows)

	empty, err := pager.Page(ctx, 100, 199)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestCataloguePagerMissingTable(t *testing.T) {
	db := setup(t)
	_, err := catalogue.NewFetcher(NewCataloguePager(db, "nope", "hsn_code"), 10).FetchAll(context.Background())
	require.ErrorIs(t, err, catalogue.ErrFetch)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "mysql", URL: "x"})
	require.Error(t, err)
	require.False(t, ValidDriver("mysql"))
	require.True(t, ValidDriver(DriverPgx))
}

func TestMigrateDown(t *testing.T) {
	url := filepath.Join(t.TempDir(), "down.db")
	require.NoError(t, Migrate(DriverSQLite, url, Up))
	require.NoError(t, Migrate(DriverSQLite, url, Up))
	require.NoError(t, Migrate(DriverSQLite, url, Down))
	require.Error(t, Migrate(DriverSQLite, url, "sideways"))
}
