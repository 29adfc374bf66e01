package catalog

import (
	"fmt"
	"strings"
)

// postgres renders the same schema for plain PostgreSQL. Staging tables are
// loaded by streaming local JSON files through COPY FROM STDIN.
type postgres struct{}

func (postgres) Name() string {
	return "postgres"
}

func (postgres) Validate(cfg Config) error {
	return requireFields(
		[2]string{"log_data", cfg.LogData},
		[2]string{"song_data", cfg.SongData},
	)
}

func (postgres) CreateTable(t Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", t.Name)
	for i, c := range t.Columns {
		b.WriteString("    ")
		b.WriteString(c.Name)
		b.WriteString(" ")
		if c.Identity {
			b.WriteString("BIGSERIAL")
		} else {
			b.WriteString(c.Type)
		}
		if c.PrimaryKey {
			b.WriteString(" PRIMARY KEY")
		} else if c.NotNull {
			b.WriteString(" NOT NULL")
		}
		if i < len(t.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String()
}

func (postgres) LoadTable(t Table, src Source, cfg Config) Statement {
	cols := t.LoadColumns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	return Statement{
		Name:       t.Name + "_copy",
		Kind:       KindLoad,
		Table:      t.Name,
		SQL:        fmt.Sprintf("COPY %s (%s) FROM STDIN", t.Name, strings.Join(names, ", ")),
		Source:     &src,
		Columns:    cols,
		ClientSide: true,
	}
}
