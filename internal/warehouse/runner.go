//-------------------------------------------------------------------------
//
// pgEdge Star Schema Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse runs catalog statements against the warehouse.
package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-starload/internal/catalog"
	"github.com/pgEdge/pgedge-starload/internal/logging"
	"github.com/pgEdge/pgedge-starload/internal/staging"
)

// Conn is the part of *pgx.Conn the runner needs.
type Conn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// IngestFunc streams a client-side load statement into its table.
type IngestFunc func(ctx context.Context, tx pgx.Tx, stmt catalog.Statement) (int64, error)

// Result records one committed statement.
type Result struct {
	Name     string
	Kind     catalog.Kind
	Table    string
	Rows     int64
	Duration time.Duration
}

// StatementError is returned when a statement fails. Its transaction has
// been rolled back; earlier statements remain committed.
type StatementError struct {
	Name  string
	Kind  catalog.Kind
	Table string
	Err   error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s statement %s on %s failed: %v", e.Kind, e.Name, e.Table, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// Runner executes statements with the PerStatementCommit policy: every
// statement runs in its own transaction (BEGIN, execute, COMMIT). A failure
// rolls back that statement only and stops the sequence.
type Runner struct {
	conn    Conn
	ingest  IngestFunc
	results []Result
}

// Option configures a Runner.
type Option func(*Runner)

// WithIngest replaces the function used for client-side loads.
func WithIngest(fn IngestFunc) Option {
	return func(r *Runner) {
		r.ingest = fn
	}
}

// NewRunner returns a runner bound to conn.
func NewRunner(conn Conn, opts ...Option) *Runner {
	r := &Runner{
		conn: conn,
		ingest: func(ctx context.Context, tx pgx.Tx, stmt catalog.Statement) (int64, error) {
			return staging.Ingest(ctx, tx, stmt)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Exec runs stmts in order and returns the first failure.
func (r *Runner) Exec(ctx context.Context, stmts []catalog.Statement) error {
	for _, stmt := range stmts {
		if err := r.execOne(ctx, stmt); err != nil {
			return &StatementError{
				Name:  stmt.Name,
				Kind:  stmt.Kind,
				Table: stmt.Table,
				Err:   err,
			}
		}
	}
	return nil
}

// Results returns every statement committed so far, in execution order.
func (r *Runner) Results() []Result {
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

func (r *Runner) execOne(ctx context.Context, stmt catalog.Statement) error {
	log := logging.Component("warehouse")
	log.Debug().
		Str("statement", stmt.Name).
		Str("kind", stmt.Kind.String()).
		Str("table", stmt.Table).
		Msg("Executing statement")

	start := time.Now()

	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	rows, err := r.run(ctx, tx, stmt)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Warn().Err(rbErr).Str("statement", stmt.Name).Msg("Rollback failed")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	res := Result{
		Name:     stmt.Name,
		Kind:     stmt.Kind,
		Table:    stmt.Table,
		Rows:     rows,
		Duration: time.Since(start),
	}
	r.results = append(r.results, res)

	log.Info().
		Str("statement", stmt.Name).
		Int64("rows", res.Rows).
		Dur("duration", res.Duration).
		Msg("Statement committed")

	return nil
}

func (r *Runner) run(ctx context.Context, tx pgx.Tx, stmt catalog.Statement) (int64, error) {
	if stmt.ClientSide {
		return r.ingest(ctx, tx, stmt)
	}
	tag, err := tx.Exec(ctx, stmt.SQL)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
