package catalog

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultDialect is used when the configuration does not name one.
const DefaultDialect = "redshift"

// Dialect renders table DDL and bulk-load statements for one SQL flavour.
// Transform statements are shared by all dialects.
type Dialect interface {
	// Name returns the dialect name used in configuration.
	Name() string

	// Validate checks that cfg holds everything the dialect's load
	// statements need.
	Validate(cfg Config) error

	// CreateTable renders a CREATE TABLE IF NOT EXISTS statement.
	CreateTable(t Table) string

	// LoadTable renders the bulk-load statement for a staging table.
	LoadTable(t Table, src Source, cfg Config) Statement
}

var (
	dialects = make(map[string]Dialect)
	mu       sync.RWMutex
)

// Register adds a dialect to the registry.
func Register(d Dialect) {
	mu.Lock()
	defer mu.Unlock()
	dialects[d.Name()] = d
}

// Get retrieves a dialect by name.
func Get(name string) (Dialect, error) {
	mu.RLock()
	defer mu.RUnlock()

	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("unknown dialect: %s", name)
	}
	return d, nil
}

// Names returns all registered dialect names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(redshift{})
	Register(postgres{})
}
