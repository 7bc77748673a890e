package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/dutyscrape/internal/hsn"
	"github.com/law-makers/dutyscrape/pkg/models"
)

// ColumnSink upserts one fixed attribute column keyed on hsn_code.
// Existing rows keep every other column.
type ColumnSink struct {
	db     *DB
	table  string
	column string
	query  string
}

// NewColumnSink creates a sink writing table.column
func NewColumnSink(db *DB, table, column string) *ColumnSink {
	q := fmt.Sprintf(
		"INSERT INTO %[1]s (%[2]s, %[3]s) VALUES (?, ?) ON CONFLICT (%[2]s) DO UPDATE SET %[3]s = excluded.%[3]s",
		quote(table), quote(KeyColumn), quote(column),
	)
	return &ColumnSink{db: db, table: table, column: column, query: db.Rebind(q)}
}

// Target describes where values land, for logs
func (s *ColumnSink) Target() string {
	return s.table + "." + s.column
}

// Write stores value (nil means NULL) for the item's code
func (s *ColumnSink) Write(ctx context.Context, item models.Item, value *float64) error {
	key, err := hsn.StoreKey(item.Code)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.query, key, value); err != nil {
		return fmt.Errorf("upsert %s for %s: %w", s.Target(), item.Key(), err)
	}
	return nil
}

// CountrySink writes one country column per item. The table models one
// column per country, so the write is existence check, bare insert when
// absent, then an update of the targeted column only.
type CountrySink struct {
	db          *DB
	table       string
	existsQuery string
	insertQuery string
}

// NewCountrySink creates a sink over the per-country table
func NewCountrySink(db *DB, table string) *CountrySink {
	t, k := quote(table), quote(KeyColumn)
	return &CountrySink{
		db:          db,
		table:       table,
		existsQuery: db.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", k, t, k)),
		insertQuery: db.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (?) ON CONFLICT (%s) DO NOTHING", t, k, k)),
	}
}

// Target describes where values land, for logs
func (s *CountrySink) Target() string {
	return s.table + ".<country>"
}

// Write stores value in the item's country column
func (s *CountrySink) Write(ctx context.Context, item models.Item, value *float64) error {
	if item.Country == nil || item.Country.Column == "" {
		return fmt.Errorf("item %s has no country column", item.Key())
	}
	key, err := hsn.StoreKey(item.Code)
	if err != nil {
		return err
	}

	var existing int64
	err = s.db.GetContext(ctx, &existing, s.existsQuery, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, s.insertQuery, key); err != nil {
			return fmt.Errorf("create %s row for %s: %w", s.table, item.Code, err)
		}
		log.Debug().Str("hsn", item.Code).Str("table", s.table).Msg("Created bare row")
	case err != nil:
		return fmt.Errorf("check %s row for %s: %w", s.table, item.Code, err)
	}

	update := s.db.Rebind(fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?",
		quote(s.table), quote(item.Country.Column), quote(KeyColumn)))
	if _, err := s.db.ExecContext(ctx, update, value, key); err != nil {
		return fmt.Errorf("update %s.%s for %s: %w", s.table, item.Country.Column, item.Code, err)
	}
	return nil
}

// EnsureColumns adds any missing nullable DOUBLE PRECISION columns to table
// and returns the names it created. The existing column set is read once;
// failing to read it aborts without altering the table.
func (db *DB) EnsureColumns(ctx context.Context, table string, columns []string) ([]string, error) {
	existing, err := db.TableColumns(ctx, table)
	if err != nil {
		return nil, err
	}

	have := make(map[string]bool, len(existing))
	for _, col := range existing {
		have[db.foldIdent(col)] = true
	}

	var added []string
	for _, col := range columns {
		if have[db.foldIdent(col)] {
			continue
		}

		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s DOUBLE PRECISION", quote(table), quote(col))
		if _, err := db.ExecContext(ctx, alter); err != nil {
			return added, fmt.Errorf("add column %s.%s: %w", table, col, err)
		}
		have[db.foldIdent(col)] = true
		added = append(added, col)
		log.Info().Str("table", table).Str("column", col).Msg("Added country column")
	}
	return added, nil
}

// TableColumns lists the columns of table in declaration order
func (db *DB) TableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", quote(table)))
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	return cols, nil
}

// foldIdent maps a column name to the form the driver compares it in.
// sqlite identifiers are case-insensitive even when quoted.
func (db *DB) foldIdent(name string) string {
	if db.driver == DriverSQLite {
		return strings.ToLower(name)
	}
	return name
}
