package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-starload/internal/catalog"
	"github.com/pgEdge/pgedge-starload/internal/db"
	"github.com/pgEdge/pgedge-starload/internal/logging"
	"github.com/pgEdge/pgedge-starload/internal/warehouse"
)

var createTablesCmd = &cobra.Command{
	Use:   "create-tables",
	Short: "Drop and recreate all warehouse tables",
	Long: `Drop every staging, fact and dimension table and create it again.
Each statement runs in its own transaction. Any data in the tables is lost.

Example:
  pgedge-starload create-tables --config dwh.yaml`,
	RunE: runCreateTables,
}

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Load staging tables and transform them into the star schema",
	Long: `Bulk-load the event log and song catalog into the staging tables,
then fill the songplay fact table and the user, song, artist and time
dimensions. Run create-tables first.

With the postgres dialect, s3.log_data, s3.log_jsonpath and s3.song_data
name local paths, such as the output of the seed command.

Example:
  pgedge-starload etl --config dwh.yaml`,
	RunE: runETL,
}

func runCreateTables(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cat, conn, err := openPipeline(ctx, "create-tables")
	if err != nil {
		return err
	}
	defer db.Close(ctx, conn)

	start := time.Now()
	if err := warehouse.Reset(ctx, warehouse.NewRunner(conn), cat); err != nil {
		return err
	}

	existing, err := db.ExistingTables(ctx, conn, tableNames())
	if err != nil {
		return err
	}

	logging.Info().
		Strs("tables", existing).
		Dur("duration", time.Since(start)).
		Msg("Tables created")
	return nil
}

func runETL(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cat, conn, err := openPipeline(ctx, "etl")
	if err != nil {
		return err
	}
	defer db.Close(ctx, conn)

	start := time.Now()
	if err := warehouse.ETL(ctx, warehouse.NewRunner(conn), cat); err != nil {
		return err
	}

	counts, err := db.RowCounts(ctx, conn, tableNames())
	if err != nil {
		return err
	}
	for _, c := range counts {
		logging.Info().
			Str("table", c.Table).
			Int64("rows", c.Rows).
			Msg("Table loaded")
	}

	logging.Info().
		Dur("duration", time.Since(start)).
		Msg("ETL complete")
	return nil
}

func tableNames() []string {
	tables := catalog.Tables()
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}
