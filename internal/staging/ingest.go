package staging

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-starload/internal/catalog"
	"github.com/pgEdge/pgedge-starload/internal/logging"
)

// Copier is satisfied by pgx.Tx and *pgx.Conn.
type Copier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Ingest streams the files selected by a client-side load statement into
// its table and returns the number of rows copied.
func Ingest(ctx context.Context, c Copier, stmt catalog.Statement) (int64, error) {
	if stmt.Source == nil {
		return 0, fmt.Errorf("statement %s has no source", stmt.Name)
	}
	src := *stmt.Source

	var paths [][]string
	if !src.Auto() {
		p, err := ReadJSONPaths(src.JSONPaths)
		if err != nil {
			return 0, err
		}
		paths = p
	}

	mapper, err := NewMapper(stmt.Columns, paths)
	if err != nil {
		return 0, err
	}

	files, err := ListFiles(src.Location)
	if err != nil {
		return 0, err
	}

	logging.Debug().
		Str("table", stmt.Table).
		Str("location", src.Location).
		Int("files", len(files)).
		Bool("auto", src.Auto()).
		Msg("Streaming staging files")

	reader := NewReader(files, mapper)
	defer reader.Close()

	n, err := c.CopyFrom(ctx, pgx.Identifier{stmt.Table}, mapper.Columns(), reader)
	if err != nil {
		return n, err
	}
	if err := reader.Err(); err != nil {
		return n, err
	}

	logging.Debug().
		Str("table", stmt.Table).
		Int64("rows", reader.Rows()).
		Int64("copied", n).
		Msg("Staging files streamed")
	return n, nil
}
