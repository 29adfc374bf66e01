package staging

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pgEdge/pgedge-starload/internal/catalog"
)

// Mapper converts decoded JSON objects into rows for a fixed column list.
type Mapper struct {
	columns []catalog.Column

	// paths is nil when keys are matched to column names.
	paths [][]string
}

// NewMapper returns a mapper for columns. A nil paths slice selects
// name matching.
func NewMapper(columns []catalog.Column, paths [][]string) (*Mapper, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("no columns to load")
	}
	if paths != nil && len(paths) != len(columns) {
		return nil, fmt.Errorf("jsonpaths has %d expressions but the table has %d columns",
			len(paths), len(columns))
	}
	return &Mapper{columns: columns, paths: paths}, nil
}

// Columns returns the target column names.
func (m *Mapper) Columns() []string {
	names := make([]string, len(m.columns))
	for i, c := range m.columns {
		names[i] = c.Name
	}
	return names
}

// Row maps one object. Missing keys and JSON nulls become SQL NULL.
func (m *Mapper) Row(obj map[string]any) ([]any, error) {
	row := make([]any, len(m.columns))
	for i, col := range m.columns {
		var raw any
		if m.paths != nil {
			raw = lookupPath(obj, m.paths[i])
		} else {
			raw = lookupKey(obj, col.Name)
		}

		v, err := convert(raw, col.Kind)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		row[i] = v
	}
	return row, nil
}

func lookupPath(obj map[string]any, path []string) any {
	var cur any = obj
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// lookupKey prefers an exact key and falls back to a case-insensitive match.
func lookupKey(obj map[string]any, name string) any {
	if v, ok := obj[name]; ok {
		return v
	}
	for k, v := range obj {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return nil
}

func convert(raw any, kind catalog.ValueKind) (any, error) {
	if raw == nil {
		return nil, nil
	}

	switch kind {
	case catalog.KindText:
		switch v := raw.(type) {
		case string:
			return v, nil
		case json.Number:
			return v.String(), nil
		case bool:
			return strconv.FormatBool(v), nil
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			return string(b), nil
		}

	case catalog.KindInteger:
		switch v := raw.(type) {
		case json.Number:
			return parseInteger(v.String())
		case string:
			if strings.TrimSpace(v) == "" {
				return nil, nil
			}
			return parseInteger(strings.TrimSpace(v))
		default:
			return nil, fmt.Errorf("cannot load %T as an integer", raw)
		}

	case catalog.KindDecimal:
		switch v := raw.(type) {
		case json.Number:
			return strconv.ParseFloat(v.String(), 64)
		case string:
			if strings.TrimSpace(v) == "" {
				return nil, nil
			}
			return strconv.ParseFloat(strings.TrimSpace(v), 64)
		default:
			return nil, fmt.Errorf("cannot load %T as a decimal", raw)
		}

	case catalog.KindTimestamp:
		switch v := raw.(type) {
		case json.Number:
			ms, err := parseInteger(v.String())
			if err != nil {
				return nil, err
			}
			return time.UnixMilli(ms).UTC(), nil
		case string:
			return time.Parse(time.RFC3339Nano, v)
		default:
			return nil, fmt.Errorf("cannot load %T as a timestamp", raw)
		}
	}

	return nil, fmt.Errorf("unknown value kind %d", kind)
}

// parseInteger accepts integral values written in float notation, such as
// 1.540919166796E12.
func parseInteger(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	if f != math.Trunc(f) || f >= 1<<63 || f < -(1<<63) {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int64(f), nil
}
