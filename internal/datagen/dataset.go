//-------------------------------------------------------------------------
//
// pgEdge Star Schema Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Names of the dataset entries under the output directory.
const (
	LogDataDir    = "log_data"
	SongDataDir   = "song_data"
	JSONPathsFile = "log_json_path.json"
)

// EventPaths maps staging_event columns, in column order, to event fields.
var EventPaths = []string{
	"$['artist']",
	"$['auth']",
	"$['firstName']",
	"$['gender']",
	"$['itemInSession']",
	"$['lastName']",
	"$['length']",
	"$['level']",
	"$['location']",
	"$['method']",
	"$['page']",
	"$['registration']",
	"$['sessionId']",
	"$['song']",
	"$['status']",
	"$['ts']",
	"$['userAgent']",
	"$['userId']",
}

// Manifest describes a dataset written to disk.
type Manifest struct {
	LogData    string
	SongData   string
	JSONPaths  string
	EventFiles int
	SongFiles  int
	Bytes      int64
}

// WriteDataset writes ds below dir:
//
//	log_data/YYYY/MM/YYYY-MM-DD-events.json  newline-delimited events per UTC day
//	song_data/X/Y/Z/<song_id>.json           one song object per file
//	log_json_path.json                       JSONPaths for staging_event
//
// Any dataset already present under dir is replaced. Other entries in dir
// are left alone.
func WriteDataset(dir string, ds *Dataset) (*Manifest, error) {
	m := &Manifest{
		LogData:   filepath.Join(dir, LogDataDir),
		SongData:  filepath.Join(dir, SongDataDir),
		JSONPaths: filepath.Join(dir, JSONPathsFile),
	}

	for _, path := range []string{m.LogData, m.SongData, m.JSONPaths} {
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", path, err)
		}
	}

	if err := writeEvents(m, ds.Events); err != nil {
		return nil, err
	}
	if err := writeSongs(m, ds.Songs); err != nil {
		return nil, err
	}

	n, err := writeJSON(m.JSONPaths, map[string][]string{"jsonpaths": EventPaths})
	if err != nil {
		return nil, err
	}
	m.Bytes += n

	return m, nil
}

func writeEvents(m *Manifest, events []Event) error {
	byDay := make(map[string][]Event)
	var days []string
	for _, e := range events {
		day := time.UnixMilli(e.TS).UTC().Format("2006-01-02")
		if _, ok := byDay[day]; !ok {
			days = append(days, day)
		}
		byDay[day] = append(byDay[day], e)
	}

	progress := NewProgressReporter(LogDataDir, int64(len(events)), 1000)
	for _, day := range days {
		path := filepath.Join(m.LogData, day[:4], day[5:7], day+"-events.json")
		n, err := writeLines(path, byDay[day])
		if err != nil {
			return err
		}
		m.EventFiles++
		m.Bytes += n
		progress.Update(int64(len(byDay[day])))
	}
	progress.Done()
	return nil
}

func writeSongs(m *Manifest, songs []Song) error {
	progress := NewProgressReporter(SongDataDir, int64(len(songs)), 1000)
	for _, s := range songs {
		id := s.SongID
		if len(id) < 5 {
			return fmt.Errorf("song id %q is too short", id)
		}
		path := filepath.Join(m.SongData, id[2:3], id[3:4], id[4:5], id+".json")
		n, err := writeJSON(path, s)
		if err != nil {
			return err
		}
		m.SongFiles++
		m.Bytes += n
		progress.Update(1)
	}
	progress.Done()
	return nil
}

func writeLines[T any](path string, records []T) (int64, error) {
	f, err := create(path)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(f)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			return 0, fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return closeAndSize(f)
}

func writeJSON(path string, v any) (int64, error) {
	f, err := create(path)
	if err != nil {
		return 0, err
	}
	if err := json.NewEncoder(f).Encode(v); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return closeAndSize(f)
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}

func closeAndSize(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", f.Name(), err)
	}
	return info.Size(), nil
}
