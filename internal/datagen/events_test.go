package datagen

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pgEdge/pgedge-starload/internal/catalog"
	"github.com/pgEdge/pgedge-starload/internal/staging"
)

func generate(t *testing.T, spec Spec) *Dataset {
	t.Helper()
	ds, err := Generate(spec)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return ds
}

func TestGenerateCounts(t *testing.T) {
	spec := DefaultSpec()
	ds := generate(t, spec)

	if len(ds.Events) != spec.EventCount {
		t.Errorf("expected %d events, got %d", spec.EventCount, len(ds.Events))
	}
	if len(ds.Songs) != spec.SongCount {
		t.Errorf("expected %d songs, got %d", spec.SongCount, len(ds.Songs))
	}

	plays := 0
	for _, e := range ds.Events {
		if e.Page == NextSongPage {
			plays++
		}
	}
	if plays != spec.NextSongCount {
		t.Errorf("expected %d NextSong events, got %d", spec.NextSongCount, plays)
	}
}

func TestGenerateTimestamps(t *testing.T) {
	ds := generate(t, DefaultSpec())

	if ds.Events[0].TS != FirstTimestamp {
		t.Errorf("first ts should be %d, got %d", FirstTimestamp, ds.Events[0].TS)
	}
	for i := 1; i < len(ds.Events); i++ {
		if ds.Events[i].TS <= ds.Events[i-1].TS {
			t.Fatalf("ts not strictly increasing at %d: %d <= %d",
				i, ds.Events[i].TS, ds.Events[i-1].TS)
		}
	}
}

func TestGenerateUsers(t *testing.T) {
	spec := DefaultSpec()
	ds := generate(t, spec)

	for i, e := range ds.Events {
		switch {
		case e.Page == NextSongPage:
			if e.UserID == nil || *e.UserID == "" {
				t.Errorf("event %d: NextSong without user id", i)
			}
			if e.Auth != "Logged In" {
				t.Errorf("event %d: NextSong with auth %q", i, e.Auth)
			}
			if e.Song == nil || e.Artist == nil || e.Length == nil {
				t.Errorf("event %d: NextSong without song, artist or length", i)
			}
		case e.Auth == "Logged Out":
			if e.UserID != nil || e.FirstName != nil {
				t.Errorf("event %d: logged out event carries a user", i)
			}
		}
		if e.Level != "free" && e.Level != "paid" {
			t.Errorf("event %d: unexpected level %q", i, e.Level)
		}
	}
}

func TestGenerateMatching(t *testing.T) {
	for _, ratio := range []float64{0, 0.25, 0.6, 1} {
		spec := DefaultSpec()
		spec.MatchRatio = ratio
		ds := generate(t, spec)

		catalogPairs := make(map[pair]bool)
		for _, s := range ds.Songs {
			p := pair{s.Title, s.ArtistName}
			if catalogPairs[p] {
				t.Fatalf("ratio %v: duplicate catalog pair %v", ratio, p)
			}
			catalogPairs[p] = true
		}

		matched := 0
		for _, e := range ds.Events {
			if e.Page == NextSongPage && catalogPairs[pair{*e.Song, *e.Artist}] {
				matched++
			}
		}
		if matched != spec.Matched() {
			t.Errorf("ratio %v: expected %d matched plays, got %d", ratio, spec.Matched(), matched)
		}
	}
}

func TestGenerateCatalogKeys(t *testing.T) {
	spec := DefaultSpec()
	spec.SongCount = 40
	ds := generate(t, spec)

	songIDs := make(map[string]bool)
	artistNames := make(map[string]string)
	for _, s := range ds.Songs {
		if songIDs[s.SongID] {
			t.Errorf("duplicate song id %s", s.SongID)
		}
		songIDs[s.SongID] = true

		if !strings.HasPrefix(s.SongID, "SO") || !strings.HasPrefix(s.ArtistID, "AR") {
			t.Errorf("unexpected ids %s / %s", s.SongID, s.ArtistID)
		}
		if name, ok := artistNames[s.ArtistID]; ok && name != s.ArtistName {
			t.Errorf("artist %s has two names: %q and %q", s.ArtistID, name, s.ArtistName)
		}
		artistNames[s.ArtistID] = s.ArtistName
	}
	if len(artistNames) != 20 {
		t.Errorf("expected 20 artists for 40 songs, got %d", len(artistNames))
	}
}

func TestGenerateIsReproducible(t *testing.T) {
	a := generate(t, DefaultSpec())
	b := generate(t, DefaultSpec())
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different datasets")
	}

	spec := DefaultSpec()
	spec.Seed = 99
	c := generate(t, spec)
	if reflect.DeepEqual(a.Songs, c.Songs) {
		t.Error("different seeds produced the same catalog")
	}
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Spec)
	}{
		{"no events", func(s *Spec) { s.EventCount = 0 }},
		{"too many plays", func(s *Spec) { s.NextSongCount = s.EventCount + 1 }},
		{"negative plays", func(s *Spec) { s.NextSongCount = -1 }},
		{"no songs", func(s *Spec) { s.SongCount = 0 }},
		{"no users", func(s *Spec) { s.UserCount = 0 }},
		{"ratio above one", func(s *Spec) { s.MatchRatio = 1.5 }},
		{"negative ratio", func(s *Spec) { s.MatchRatio = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := DefaultSpec()
			tt.modify(&spec)
			if _, err := Generate(spec); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestWriteDatasetLayout(t *testing.T) {
	dir := t.TempDir()
	spec := DefaultSpec()
	spec.EventCount = 400
	spec.NextSongCount = 150
	ds := generate(t, spec)

	m, err := WriteDataset(dir, ds)
	if err != nil {
		t.Fatalf("WriteDataset failed: %v", err)
	}

	if m.SongFiles != spec.SongCount {
		t.Errorf("expected %d song files, got %d", spec.SongCount, m.SongFiles)
	}
	if m.EventFiles < 1 {
		t.Error("expected at least one event file")
	}
	if m.Bytes <= 0 {
		t.Error("expected a positive byte count")
	}

	first := filepath.Join(dir, LogDataDir, "2018", "11", "2018-11-01-events.json")
	if _, err := os.Stat(first); err != nil {
		t.Errorf("expected first day file: %v", err)
	}

	s := ds.Songs[0]
	songFile := filepath.Join(dir, SongDataDir, s.SongID[2:3], s.SongID[3:4], s.SongID[4:5], s.SongID+".json")
	data, err := os.ReadFile(songFile)
	if err != nil {
		t.Fatalf("expected song file: %v", err)
	}
	var got Song
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("song file is not JSON: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Errorf("song file round trip mismatch: %+v != %+v", got, s)
	}
}

func TestWriteDatasetReplacesPreviousDataset(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(keep, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var last *Dataset
	for _, seed := range []uint64{1, 2} {
		spec := DefaultSpec()
		spec.Seed = seed
		last = generate(t, spec)
		if _, err := WriteDataset(dir, last); err != nil {
			t.Fatalf("WriteDataset with seed %d failed: %v", seed, err)
		}
	}

	songs, err := filepath.Glob(filepath.Join(dir, SongDataDir, "*", "*", "*", "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(songs) != len(last.Songs) {
		t.Errorf("expected %d song files, got %d", len(last.Songs), len(songs))
	}
	for _, s := range last.Songs {
		path := filepath.Join(dir, SongDataDir, s.SongID[2:3], s.SongID[3:4], s.SongID[4:5], s.SongID+".json")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing song file for %s: %v", s.SongID, err)
		}
	}

	// every event on disk comes from the second dataset
	files, err := staging.ListFiles(filepath.Join(dir, LogDataDir))
	if err != nil {
		t.Fatal(err)
	}
	var lines int
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatal(err)
		}
		lines += strings.Count(string(data), "\n")
	}
	if lines != len(last.Events) {
		t.Errorf("expected %d events on disk, got %d", len(last.Events), lines)
	}

	if _, err := os.Stat(keep); err != nil {
		t.Errorf("unrelated file was removed: %v", err)
	}
}

func TestGenerateRandomSeed(t *testing.T) {
	spec := DefaultSpec()
	spec.Seed = 0
	ds := generate(t, spec)
	if len(ds.Events) != spec.EventCount || len(ds.Songs) != spec.SongCount {
		t.Errorf("unexpected sizes: %d events, %d songs", len(ds.Events), len(ds.Songs))
	}
}

func TestEventPathsMatchStagingColumns(t *testing.T) {
	table, ok := catalog.Lookup(catalog.StagingEventTable)
	if !ok {
		t.Fatal("staging_event not in catalog")
	}
	if len(EventPaths) != len(table.Columns) {
		t.Fatalf("expected %d paths, got %d", len(table.Columns), len(EventPaths))
	}
	for i, col := range table.Columns {
		p, err := staging.ParsePath(EventPaths[i])
		if err != nil {
			t.Fatalf("bad path %s: %v", EventPaths[i], err)
		}
		if strings.ToLower(p[0]) != strings.ReplaceAll(col.Name, "_", "") {
			t.Errorf("path %d (%s) does not feed column %s", i, EventPaths[i], col.Name)
		}
	}
}

func TestWrittenDatasetStreamsIntoStaging(t *testing.T) {
	dir := t.TempDir()
	ds := generate(t, DefaultSpec())
	m, err := WriteDataset(dir, ds)
	if err != nil {
		t.Fatalf("WriteDataset failed: %v", err)
	}

	table, _ := catalog.Lookup(catalog.StagingEventTable)
	paths, err := staging.ReadJSONPaths(m.JSONPaths)
	if err != nil {
		t.Fatalf("ReadJSONPaths failed: %v", err)
	}
	mapper, err := staging.NewMapper(table.LoadColumns(), paths)
	if err != nil {
		t.Fatalf("NewMapper failed: %v", err)
	}
	files, err := staging.ListFiles(m.LogData)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}

	r := staging.NewReader(files, mapper)
	defer r.Close()
	for r.Next() {
	}
	if err := r.Err(); err != nil {
		t.Fatalf("reader failed: %v", err)
	}
	if r.Rows() != int64(len(ds.Events)) {
		t.Errorf("expected %d rows, got %d", len(ds.Events), r.Rows())
	}
}
