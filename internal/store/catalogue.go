package store

import (
	"context"
	"fmt"
)

// CataloguePager reads one column of the catalogue table in stable order
type CataloguePager struct {
	db     *DB
	query  string
	table  string
	column string
}

// NewCataloguePager creates a pager over table.column
func NewCataloguePager(db *DB, table, column string) *CataloguePager {
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s LIMIT ? OFFSET ?", quote(column), quote(table), quote(column))
	return &CataloguePager{
		db:     db,
		query:  db.Rebind(q),
		table:  table,
		column: column,
	}
}

// Page returns the raw values of rows from..to inclusive
func (p *CataloguePager) Page(ctx context.Context, from, to int) ([]any, error) {
	if to < from {
		return nil, fmt.Errorf("invalid range %d-%d", from, to)
	}

	rows, err := p.db.QueryxContext(ctx, p.query, to-from+1, from)
	if err != nil {
		return nil, fmt.Errorf("query %s.%s: %w", p.table, p.column, err)
	}
	defer rows.Close()

	var out []any
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s.%s: %w", p.table, p.column, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s.%s: %w", p.table, p.column, err)
	}
	return out, nil
}
