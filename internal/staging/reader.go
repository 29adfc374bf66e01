package staging

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pgEdge/pgedge-starload/internal/logging"
)

// LocalPath turns a location (plain path or file:// URL) into a filesystem
// path. Remote schemes are rejected.
func LocalPath(location string) (string, error) {
	loc := strings.TrimSpace(location)
	if loc == "" {
		return "", fmt.Errorf("empty location")
	}
	if rest, ok := strings.CutPrefix(loc, "file://"); ok {
		return filepath.FromSlash(rest), nil
	}
	if i := strings.Index(loc, "://"); i > 0 {
		return "", fmt.Errorf("location %s: scheme %s is not readable locally", loc, loc[:i])
	}
	return loc, nil
}

// ListFiles returns the *.json files a location selects, in lexical order.
// A directory selects every file beneath it, a file selects itself, and any
// other path is treated as a prefix of file paths in its parent directory.
func ListFiles(location string) ([]string, error) {
	path, err := LocalPath(location)
	if err != nil {
		return nil, err
	}

	root, prefix := path, ""
	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return []string{path}, nil
	case err == nil:
		// whole directory
	case errors.Is(err, fs.ErrNotExist):
		root, prefix = filepath.Dir(path), filepath.Clean(path)
	default:
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".json") {
			return nil
		}
		if prefix != "" && !strings.HasPrefix(p, prefix) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", location, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("location %s matches no .json files", location)
	}
	return files, nil
}

// Reader streams rows from a list of JSON files. It implements
// pgx.CopyFromSource.
type Reader struct {
	files  []string
	mapper *Mapper

	next    int
	file    *os.File
	dec     *json.Decoder
	name    string
	record  int
	current []any
	rows    int64
	err     error
}

// NewReader returns a reader over files.
func NewReader(files []string, mapper *Mapper) *Reader {
	return &Reader{files: files, mapper: mapper}
}

// Next advances to the next row.
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}

	for {
		if r.dec == nil {
			if r.next >= len(r.files) {
				return false
			}
			if err := r.open(r.files[r.next]); err != nil {
				r.err = err
				return false
			}
			r.next++
		}

		var obj map[string]any
		err := r.dec.Decode(&obj)
		if err == io.EOF {
			r.closeFile()
			continue
		}
		r.record++
		if err != nil {
			r.err = fmt.Errorf("%s: record %d: malformed JSON: %w", r.name, r.record, err)
			return false
		}

		row, err := r.mapper.Row(obj)
		if err != nil {
			r.err = fmt.Errorf("%s: record %d: %w", r.name, r.record, err)
			return false
		}
		r.current = row
		r.rows++
		return true
	}
}

// Values returns the current row.
func (r *Reader) Values() ([]any, error) {
	return r.current, nil
}

// Err returns the first error encountered.
func (r *Reader) Err() error {
	return r.err
}

// Rows returns the number of rows produced so far.
func (r *Reader) Rows() int64 {
	return r.rows
}

// Close releases the open file, if any.
func (r *Reader) Close() {
	r.closeFile()
}

func (r *Reader) open(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	logging.Debug().Str("file", path).Msg("Reading staging file")

	r.file = f
	r.name = path
	r.record = 0
	r.dec = json.NewDecoder(f)
	r.dec.UseNumber()
	return nil
}

func (r *Reader) closeFile() {
	if r.file != nil {
		_ = r.file.Close()
	}
	r.file = nil
	r.dec = nil
}
