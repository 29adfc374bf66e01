//-------------------------------------------------------------------------
//
// pgEdge Star Schema Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package staging streams local JSON datasets into staging tables.
//
// It reproduces the parts of the warehouse's JSON bulk-load that the loader
// relies on: a location prefix selects the files, and each JSON object maps
// to one row, either by a JSONPaths file (Nth path feeds the Nth column) or
// by matching object keys to column names.
package staging

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// jsonPathsFile is the document format of a JSONPaths file.
type jsonPathsFile struct {
	JSONPaths []string `json:"jsonpaths"`
}

// ReadJSONPaths loads a JSONPaths file and parses every expression.
func ReadJSONPaths(location string) ([][]string, error) {
	path, err := LocalPath(location)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read jsonpaths file: %w", err)
	}

	var doc jsonPathsFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse jsonpaths file %s: %w", path, err)
	}
	if len(doc.JSONPaths) == 0 {
		return nil, fmt.Errorf("jsonpaths file %s has no expressions", path)
	}

	paths := make([][]string, len(doc.JSONPaths))
	for i, expr := range doc.JSONPaths {
		p, err := ParsePath(expr)
		if err != nil {
			return nil, fmt.Errorf("jsonpaths file %s, expression %d: %w", path, i+1, err)
		}
		paths[i] = p
	}
	return paths, nil
}

// ParsePath parses a JSONPath expression in bracket ($['a']['b']) or dot
// ($.a.b) notation into its key segments. Array indexes are not supported.
func ParsePath(expr string) ([]string, error) {
	s := strings.TrimSpace(expr)
	if !strings.HasPrefix(s, "$") {
		return nil, fmt.Errorf("path %q must start with $", expr)
	}
	s = s[1:]

	var keys []string
	for len(s) > 0 {
		switch {
		case s[0] == '.':
			s = s[1:]
			end := strings.IndexAny(s, ".[")
			if end < 0 {
				end = len(s)
			}
			if end == 0 {
				return nil, fmt.Errorf("path %q has an empty key", expr)
			}
			keys = append(keys, s[:end])
			s = s[end:]

		case strings.HasPrefix(s, "['") || strings.HasPrefix(s, `["`):
			quote := s[1]
			closing := string(quote) + "]"
			end := strings.Index(s[2:], closing)
			if end < 0 {
				return nil, fmt.Errorf("path %q has an unterminated bracket", expr)
			}
			keys = append(keys, s[2:2+end])
			s = s[2+end+2:]

		default:
			return nil, fmt.Errorf("path %q: unsupported syntax at %q", expr, s)
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("path %q selects the whole document", expr)
	}
	return keys, nil
}
