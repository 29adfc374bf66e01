// Package db provides database connection management for pgedge-starload.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-starload/internal/logging"
	"github.com/pgEdge/pgedge-starload/pkg/version"
)

// Connect opens the single connection a pipeline run uses. The caller
// closes it once at the end of the run.
func Connect(ctx context.Context, connString, component string) (*pgx.Conn, error) {
	config, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if config.RuntimeParams == nil {
		config.RuntimeParams = make(map[string]string)
	}
	if _, ok := config.RuntimeParams["application_name"]; !ok {
		config.RuntimeParams["application_name"] = version.ApplicationName(component)
	}

	logging.Debug().
		Str("host", config.Host).
		Uint16("port", config.Port).
		Str("database", config.Database).
		Str("user", config.User).
		Msg("Connecting to database")

	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s:%d/%s: %w",
			config.Host, config.Port, config.Database, err)
	}

	logging.Info().
		Str("host", config.Host).
		Str("database", config.Database).
		Msg("Connected to database")

	return conn, nil
}

// Close closes conn, logging rather than returning a close failure.
func Close(ctx context.Context, conn *pgx.Conn) {
	if conn == nil {
		return
	}
	if err := conn.Close(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to close database connection")
	}
}
