//-------------------------------------------------------------------------
//
// pgEdge Star Schema Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package catalog holds every SQL statement the loader runs.
//
// A Catalog is rendered once from a Config and never changes afterwards. It
// exposes four ordered lists: Drop, Create, Load and Transform. Order within
// each list is the execution order.
package catalog

import (
	"fmt"
	"strings"
)

// Config holds the values substituted into the statement templates.
type Config struct {
	// Dialect names a registered dialect. Empty means DefaultDialect.
	Dialect string

	// Region is the object store region for bulk loads.
	Region string

	// LogData is the location prefix of the event log files.
	LogData string

	// LogJSONPath is the JSONPaths file that maps event fields to columns.
	LogJSONPath string

	// SongData is the location prefix of the song catalog files.
	SongData string

	// RoleARN is the access role the warehouse assumes to read the files.
	RoleARN string
}

// Kind classifies a statement.
type Kind int

// Statement kinds.
const (
	KindDrop Kind = iota
	KindCreate
	KindLoad
	KindTransform
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDrop:
		return "drop"
	case KindCreate:
		return "create"
	case KindLoad:
		return "load"
	case KindTransform:
		return "transform"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Source describes where a bulk load reads from.
type Source struct {
	// Location is a key prefix (s3://...) or a local directory.
	Location string

	// JSONPaths is the JSONPaths file location. Empty means fields are
	// matched to columns by name.
	JSONPaths string

	// Format is the declared file format.
	Format string
}

// Auto reports whether fields are matched to columns by name.
func (s Source) Auto() bool {
	return s.JSONPaths == ""
}

// Statement is a single rendered SQL statement.
type Statement struct {
	Name  string
	Kind  Kind
	Table string
	SQL   string

	// Source and Columns are set on load statements.
	Source  *Source
	Columns []Column

	// ClientSide marks load statements whose rows are streamed by the
	// client instead of fetched by the server.
	ClientSide bool
}

// Catalog is the full ordered set of statements for one configuration.
type Catalog struct {
	dialect string

	Drop      []Statement
	Create    []Statement
	Load      []Statement
	Transform []Statement
}

// Dialect returns the name of the dialect the catalog was rendered for.
func (c *Catalog) Dialect() string {
	return c.dialect
}

// All returns every statement in pipeline order: drops, creates, loads,
// then transforms.
func (c *Catalog) All() []Statement {
	all := make([]Statement, 0, len(c.Drop)+len(c.Create)+len(c.Load)+len(c.Transform))
	all = append(all, c.Drop...)
	all = append(all, c.Create...)
	all = append(all, c.Load...)
	all = append(all, c.Transform...)
	return all
}

// New validates cfg and renders the catalog.
func New(cfg Config) (*Catalog, error) {
	cfg = cfg.normalized()

	d, err := Get(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid %s catalog config: %w", d.Name(), err)
	}

	c := &Catalog{dialect: d.Name()}

	for _, t := range tables {
		c.Drop = append(c.Drop, Statement{
			Name:  t.Name + "_drop",
			Kind:  KindDrop,
			Table: t.Name,
			SQL:   "DROP TABLE IF EXISTS " + t.Name,
		})
	}

	for _, t := range tables {
		c.Create = append(c.Create, Statement{
			Name:  t.Name + "_create",
			Kind:  KindCreate,
			Table: t.Name,
			SQL:   d.CreateTable(t),
		})
	}

	c.Load = []Statement{
		d.LoadTable(mustLookup(StagingEventTable), Source{
			Location:  cfg.LogData,
			JSONPaths: cfg.LogJSONPath,
			Format:    "json",
		}, cfg),
		d.LoadTable(mustLookup(StagingSongTable), Source{
			Location: cfg.SongData,
			Format:   "json",
		}, cfg),
	}

	c.Transform = transformStatements()

	return c, nil
}

// normalized trims whitespace and the single quotes some config files wrap
// values in, and applies the default dialect.
func (c Config) normalized() Config {
	c.Dialect = strings.ToLower(strings.TrimSpace(c.Dialect))
	if c.Dialect == "" {
		c.Dialect = DefaultDialect
	}
	c.Region = unquote(c.Region)
	c.LogData = unquote(c.LogData)
	c.LogJSONPath = unquote(c.LogJSONPath)
	c.SongData = unquote(c.SongData)
	c.RoleARN = unquote(c.RoleARN)
	return c
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = s[1 : len(s)-1]
	}
	return s
}

// Literal renders s as a SQL string literal.
func Literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func requireFields(fields ...[2]string) error {
	var missing []string
	for _, f := range fields {
		if f[1] == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}
