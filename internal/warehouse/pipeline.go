package warehouse

import (
	"context"
	"fmt"

	"github.com/pgEdge/pgedge-starload/internal/catalog"
	"github.com/pgEdge/pgedge-starload/internal/logging"
)

// Reset drops every table and creates it again. Drops run before any
// create, so the result does not depend on what existed before.
func Reset(ctx context.Context, r *Runner, cat *catalog.Catalog) error {
	logging.Info().Str("dialect", cat.Dialect()).Msg("Dropping tables")
	if err := r.Exec(ctx, cat.Drop); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}

	logging.Info().Str("dialect", cat.Dialect()).Msg("Creating tables")
	if err := r.Exec(ctx, cat.Create); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// LoadStaging bulk-loads the staging tables.
func LoadStaging(ctx context.Context, r *Runner, cat *catalog.Catalog) error {
	logging.Info().Str("dialect", cat.Dialect()).Msg("Loading staging tables")
	if err := r.Exec(ctx, cat.Load); err != nil {
		return fmt.Errorf("failed to load staging tables: %w", err)
	}
	return nil
}

// Transform fills the fact and dimension tables from staging.
func Transform(ctx context.Context, r *Runner, cat *catalog.Catalog) error {
	logging.Info().Msg("Transforming staging data")
	if err := r.Exec(ctx, cat.Transform); err != nil {
		return fmt.Errorf("failed to transform staging data: %w", err)
	}
	return nil
}

// ETL runs LoadStaging and then Transform.
func ETL(ctx context.Context, r *Runner, cat *catalog.Catalog) error {
	if err := LoadStaging(ctx, r, cat); err != nil {
		return err
	}
	return Transform(ctx, r, cat)
}
