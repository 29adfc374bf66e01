//-------------------------------------------------------------------------
//
// pgEdge Star Schema Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is satisfied by *pgx.Conn and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ColumnInfo describes a column as the server reports it.
type ColumnInfo struct {
	Name     string
	DataType string
	Nullable bool
}

// TableCount is a table name with its row count.
type TableCount struct {
	Table string
	Rows  int64
}

// ExistingTables returns which of the given tables exist in the current
// schema search path, preserving the order of names.
func ExistingTables(ctx context.Context, q Querier, names []string) ([]string, error) {
	rows, err := q.Query(ctx, `
        SELECT table_name
        FROM information_schema.tables
        WHERE table_schema = current_schema()
          AND table_type = 'BASE TABLE'
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(names))
	for _, n := range names {
		if present[n] {
			out = append(out, n)
		}
	}
	return out, nil
}

// TableColumns returns the columns of a table in ordinal order.
func TableColumns(ctx context.Context, q Querier, table string) ([]ColumnInfo, error) {
	rows, err := q.Query(ctx, `
        SELECT column_name, data_type, is_nullable = 'YES'
        FROM information_schema.columns
        WHERE table_schema = current_schema()
          AND table_name = $1
        ORDER BY ordinal_position
    `, table)
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var c ColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// RowCount returns the number of rows in a table. The name must come from
// the catalog, never from user input.
func RowCount(ctx context.Context, q Querier, table string) (int64, error) {
	var n int64
	err := q.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s",
		pgx.Identifier{table}.Sanitize())).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// RowCounts returns row counts for each table in order.
func RowCounts(ctx context.Context, q Querier, tables []string) ([]TableCount, error) {
	counts := make([]TableCount, 0, len(tables))
	for _, t := range tables {
		n, err := RowCount(ctx, q, t)
		if err != nil {
			return nil, err
		}
		counts = append(counts, TableCount{Table: t, Rows: n})
	}
	return counts, nil
}
