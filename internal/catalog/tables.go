//-------------------------------------------------------------------------
//
// pgEdge Star Schema Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package catalog

// Table names.
const (
	StagingEventTable = "staging_event"
	StagingSongTable  = "staging_song"
	SongplayTable     = "songplay"
	UserTable         = "user_table"
	SongTable         = "song"
	ArtistTable       = "artist"
	TimeTable         = "time"
)

// Layer is the role a table plays in the star schema.
type Layer string

// Table layers.
const (
	LayerStaging   Layer = "staging"
	LayerFact      Layer = "fact"
	LayerDimension Layer = "dimension"
)

// ValueKind is how a staged value is converted before it is written.
type ValueKind int

// Value kinds.
const (
	KindText ValueKind = iota
	KindInteger
	KindDecimal
	KindTimestamp
)

// Column describes a single table column.
type Column struct {
	Name string
	Type string
	Kind ValueKind

	NotNull    bool
	PrimaryKey bool

	// Identity marks the surrogate key column.
	Identity bool

	// DistKey and SortKey are only rendered by dialects that support them.
	DistKey bool
	SortKey bool
}

// Table describes a warehouse table.
type Table struct {
	Name    string
	Layer   Layer
	Columns []Column

	// DistStyle is the distribution style for dialects that support it.
	DistStyle string
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// LoadColumns returns the columns a bulk load writes, skipping identity
// columns.
func (t Table) LoadColumns() []Column {
	cols := make([]Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Identity {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// Column layout follows the source datasets. Staging column order is the
// order the JSONPaths file maps event fields to.
var tables = []Table{
	{
		Name:  StagingEventTable,
		Layer: LayerStaging,
		Columns: []Column{
			{Name: "artist", Type: "TEXT"},
			{Name: "auth", Type: "VARCHAR(15)"},
			{Name: "first_name", Type: "VARCHAR(15)"},
			{Name: "gender", Type: "VARCHAR(15)"},
			{Name: "iteminsession", Type: "INT", Kind: KindInteger},
			{Name: "last_name", Type: "VARCHAR(15)"},
			{Name: "length", Type: "DECIMAL", Kind: KindDecimal},
			{Name: "level", Type: "VARCHAR(4)"},
			{Name: "location", Type: "TEXT"},
			{Name: "method", Type: "VARCHAR(3)"},
			{Name: "page", Type: "TEXT"},
			{Name: "registration", Type: "TEXT"},
			{Name: "sessionid", Type: "TEXT"},
			{Name: "song", Type: "TEXT"},
			{Name: "status", Type: "VARCHAR(3)"},
			{Name: "ts", Type: "BIGINT", Kind: KindInteger},
			{Name: "useragent", Type: "TEXT"},
			{Name: "userid", Type: "TEXT"},
		},
	},
	{
		Name:  StagingSongTable,
		Layer: LayerStaging,
		Columns: []Column{
			{Name: "num_songs", Type: "BIGINT", Kind: KindInteger},
			{Name: "artist_id", Type: "TEXT"},
			{Name: "artist_latitude", Type: "DECIMAL", Kind: KindDecimal},
			{Name: "artist_longitude", Type: "DECIMAL", Kind: KindDecimal},
			{Name: "artist_location", Type: "TEXT"},
			{Name: "artist_name", Type: "TEXT"},
			{Name: "song_id", Type: "TEXT"},
			{Name: "title", Type: "TEXT"},
			{Name: "duration", Type: "DECIMAL", Kind: KindDecimal},
			{Name: "year", Type: "INT", Kind: KindInteger},
		},
	},
	{
		Name:      SongplayTable,
		Layer:     LayerFact,
		DistStyle: "KEY",
		Columns: []Column{
			{Name: "songplay_id", Type: "INT", Kind: KindInteger, Identity: true, PrimaryKey: true},
			{Name: "start_time", Type: "TIMESTAMP", Kind: KindTimestamp, NotNull: true, DistKey: true, SortKey: true},
			{Name: "user_id", Type: "TEXT", NotNull: true},
			{Name: "level", Type: "VARCHAR(4)", NotNull: true},
			{Name: "song_id", Type: "TEXT"},
			{Name: "artist_id", Type: "TEXT"},
			{Name: "session_id", Type: "TEXT"},
			{Name: "location", Type: "TEXT"},
			{Name: "user_agent", Type: "TEXT"},
		},
	},
	{
		Name:      UserTable,
		Layer:     LayerDimension,
		DistStyle: "ALL",
		Columns: []Column{
			{Name: "user_id", Type: "TEXT", PrimaryKey: true, SortKey: true},
			{Name: "first_name", Type: "VARCHAR(15)"},
			{Name: "last_name", Type: "VARCHAR(15)"},
			{Name: "gender", Type: "VARCHAR(15)"},
			{Name: "level", Type: "VARCHAR(4)"},
		},
	},
	{
		Name:      SongTable,
		Layer:     LayerDimension,
		DistStyle: "ALL",
		Columns: []Column{
			{Name: "song_id", Type: "TEXT", PrimaryKey: true, SortKey: true},
			{Name: "title", Type: "TEXT", NotNull: true},
			{Name: "artist_id", Type: "TEXT", NotNull: true},
			{Name: "year", Type: "INT", Kind: KindInteger, NotNull: true},
			{Name: "duration", Type: "DECIMAL", Kind: KindDecimal, NotNull: true},
		},
	},
	{
		Name:      ArtistTable,
		Layer:     LayerDimension,
		DistStyle: "ALL",
		Columns: []Column{
			{Name: "artist_id", Type: "TEXT", PrimaryKey: true, SortKey: true},
			{Name: "name", Type: "TEXT", NotNull: true},
			{Name: "location", Type: "TEXT"},
			{Name: "latitude", Type: "DECIMAL", Kind: KindDecimal},
			{Name: "longitude", Type: "DECIMAL", Kind: KindDecimal},
		},
	},
	{
		Name:      TimeTable,
		Layer:     LayerDimension,
		DistStyle: "ALL",
		Columns: []Column{
			{Name: "start_time", Type: "TIMESTAMP", Kind: KindTimestamp, PrimaryKey: true, SortKey: true},
			{Name: "hour", Type: "INT", Kind: KindInteger, NotNull: true},
			{Name: "day", Type: "INT", Kind: KindInteger, NotNull: true},
			{Name: "week", Type: "INT", Kind: KindInteger, NotNull: true},
			{Name: "month", Type: "INT", Kind: KindInteger, NotNull: true},
			{Name: "year", Type: "INT", Kind: KindInteger, NotNull: true},
			{Name: "weekday", Type: "INT", Kind: KindInteger, NotNull: true},
		},
	},
}

// Tables returns every table definition in creation order.
func Tables() []Table {
	out := make([]Table, len(tables))
	copy(out, tables)
	return out
}

// Lookup returns the definition of the named table.
func Lookup(name string) (Table, bool) {
	for _, t := range tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

func mustLookup(name string) Table {
	t, ok := Lookup(name)
	if !ok {
		panic("catalog: unknown table " + name)
	}
	return t
}
