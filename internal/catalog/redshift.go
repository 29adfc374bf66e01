package catalog

import (
	"fmt"
	"strings"
)

// redshift renders statements for a columnar warehouse that loads staging
// tables from object storage with COPY ... IAM_ROLE ... JSON ... REGION.
type redshift struct{}

func (redshift) Name() string {
	return "redshift"
}

func (redshift) Validate(cfg Config) error {
	return requireFields(
		[2]string{"log_data", cfg.LogData},
		[2]string{"log_jsonpath", cfg.LogJSONPath},
		[2]string{"song_data", cfg.SongData},
		[2]string{"iam_role arn", cfg.RoleARN},
		[2]string{"region", cfg.Region},
	)
}

func (redshift) CreateTable(t Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", t.Name)
	for i, c := range t.Columns {
		b.WriteString("    ")
		b.WriteString(c.Name)
		b.WriteString(" ")
		b.WriteString(c.Type)
		if c.Identity {
			b.WriteString(" IDENTITY(0,1)")
		}
		if c.PrimaryKey {
			b.WriteString(" PRIMARY KEY")
		} else if c.NotNull {
			b.WriteString(" NOT NULL")
		}
		if c.DistKey {
			b.WriteString(" DISTKEY")
		}
		if c.SortKey {
			b.WriteString(" SORTKEY")
		}
		if i < len(t.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	if t.DistStyle != "" {
		b.WriteString(" DISTSTYLE ")
		b.WriteString(t.DistStyle)
	}
	return b.String()
}

func (redshift) LoadTable(t Table, src Source, cfg Config) Statement {
	format := "'auto'"
	if !src.Auto() {
		format = Literal(src.JSONPaths)
	}

	sql := fmt.Sprintf("COPY %s FROM %s\nIAM_ROLE %s\nJSON %s REGION %s",
		t.Name, Literal(src.Location), Literal(cfg.RoleARN), format, Literal(cfg.Region))

	return Statement{
		Name:    t.Name + "_copy",
		Kind:    KindLoad,
		Table:   t.Name,
		SQL:     sql,
		Source:  &src,
		Columns: t.LoadColumns(),
	}
}
