//-------------------------------------------------------------------------
//
// pgEdge Star Schema Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration
// +build integration

// Integration tests for the schema reset and ETL pipelines.
// Run with: go test -tags=integration ./internal/warehouse/...
// Uses PGEDGE_TEST_CONN when set, otherwise starts a PostgreSQL container.

package warehouse_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-starload/internal/catalog"
	"github.com/pgEdge/pgedge-starload/internal/datagen"
	"github.com/pgEdge/pgedge-starload/internal/db"
	"github.com/pgEdge/pgedge-starload/internal/testutil"
	"github.com/pgEdge/pgedge-starload/internal/warehouse"
)

func tableNames() []string {
	var names []string
	for _, t := range catalog.Tables() {
		names = append(names, t.Name)
	}
	return names
}

// setupDB creates a fresh database and returns a connection to it.
func setupDB(t *testing.T, name string) *pgx.Conn {
	t.Helper()

	baseConnStr := testutil.SkipIfNoPostgres(t)
	connStr, dbName := testutil.CreateTestDB(t, baseConnStr, name)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)
	t.Cleanup(cleanup.Cleanup)

	conn, err := db.Connect(context.Background(), connStr, "integration-test")
	require.NoError(t, err)
	cleanup.SetConn(conn)
	return conn
}

// seedCatalog writes a synthetic dataset and renders a postgres catalog
// that reads it.
func seedCatalog(t *testing.T, spec datagen.Spec) (*catalog.Catalog, *datagen.Dataset) {
	t.Helper()

	ds, err := datagen.Generate(spec)
	require.NoError(t, err)

	m, err := datagen.WriteDataset(t.TempDir(), ds)
	require.NoError(t, err)

	cat, err := catalog.New(catalog.Config{
		Dialect:     "postgres",
		LogData:     m.LogData,
		LogJSONPath: m.JSONPaths,
		SongData:    m.SongData,
	})
	require.NoError(t, err)
	return cat, ds
}

func count(t *testing.T, conn *pgx.Conn, sql string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.QueryRow(context.Background(), sql).Scan(&n), sql)
	return n
}

func describe(t *testing.T, conn *pgx.Conn) map[string][]db.ColumnInfo {
	t.Helper()
	out := make(map[string][]db.ColumnInfo)
	for _, name := range tableNames() {
		cols, err := db.TableColumns(context.Background(), conn, name)
		require.NoError(t, err)
		out[name] = cols
	}
	return out
}

func TestResetIsRepeatable(t *testing.T) {
	ctx := context.Background()
	conn := setupDB(t, "reset")
	cat, _ := seedCatalog(t, datagen.DefaultSpec())

	require.NoError(t, warehouse.Reset(ctx, warehouse.NewRunner(conn), cat))
	first := describe(t, conn)

	existing, err := db.ExistingTables(ctx, conn, tableNames())
	require.NoError(t, err)
	assert.Equal(t, tableNames(), existing)

	// Rows left behind must not survive the next reset
	_, err = conn.Exec(ctx, "INSERT INTO staging_song (song_id, title) VALUES ('SOX', 'x')")
	require.NoError(t, err)

	require.NoError(t, warehouse.Reset(ctx, warehouse.NewRunner(conn), cat))
	assert.Equal(t, first, describe(t, conn))
	assert.Zero(t, count(t, conn, "SELECT COUNT(*) FROM staging_song"))

	require.Len(t, first[catalog.StagingEventTable], 18)
	require.Len(t, first[catalog.TimeTable], 7)
}

func TestETLEndToEnd(t *testing.T) {
	ctx := context.Background()
	conn := setupDB(t, "etl")
	spec := datagen.DefaultSpec()
	cat, ds := seedCatalog(t, spec)

	runner := warehouse.NewRunner(conn)
	require.NoError(t, warehouse.Reset(ctx, runner, cat))
	require.NoError(t, warehouse.ETL(ctx, runner, cat))

	counts, err := db.RowCounts(ctx, conn, tableNames())
	require.NoError(t, err)
	got := make(map[string]int64)
	for _, c := range counts {
		got[c.Table] = c.Rows
	}

	assert.Equal(t, int64(spec.EventCount), got[catalog.StagingEventTable])
	assert.Equal(t, int64(spec.SongCount), got[catalog.StagingSongTable])
	assert.Equal(t, int64(spec.NextSongCount), got[catalog.SongplayTable])
	assert.Equal(t, int64(spec.SongCount), got[catalog.SongTable])
	assert.Equal(t, int64((spec.SongCount+1)/2), got[catalog.ArtistTable])
	assert.Equal(t,
		count(t, conn, "SELECT COUNT(DISTINCT start_time) FROM songplay"),
		got[catalog.TimeTable])

	listeners := make(map[string]bool)
	for _, e := range ds.Events {
		if e.Page == datagen.NextSongPage {
			listeners[*e.UserID] = true
		}
	}
	assert.Equal(t, int64(len(listeners)), got[catalog.UserTable])

	// Results carry the rows each statement wrote
	var songplayRows int64 = -1
	for _, r := range runner.Results() {
		if r.Table == catalog.SongplayTable && r.Kind == catalog.KindTransform {
			songplayRows = r.Rows
		}
	}
	assert.Equal(t, int64(spec.NextSongCount), songplayRows)
}

func TestDimensionKeysAreUnique(t *testing.T) {
	ctx := context.Background()
	conn := setupDB(t, "keys")
	spec := datagen.DefaultSpec()
	spec.UserCount = 5 // fewer users, more repeated listeners
	cat, _ := seedCatalog(t, spec)

	runner := warehouse.NewRunner(conn)
	require.NoError(t, warehouse.Reset(ctx, runner, cat))
	require.NoError(t, warehouse.ETL(ctx, runner, cat))

	keys := map[string]string{
		catalog.UserTable:   "user_id",
		catalog.SongTable:   "song_id",
		catalog.ArtistTable: "artist_id",
		catalog.TimeTable:   "start_time",
	}
	for table, key := range keys {
		dups := count(t, conn, "SELECT COUNT(*) - COUNT(DISTINCT "+key+") FROM "+table)
		assert.Zero(t, dups, "duplicate %s in %s", key, table)
		nulls := count(t, conn, "SELECT COUNT(*) FROM "+table+" WHERE "+key+" IS NULL")
		assert.Zero(t, nulls, "null %s in %s", key, table)
	}

	assert.Zero(t, count(t, conn, "SELECT COUNT(*) FROM songplay WHERE user_id IS NULL"))
}

func TestSongplayLeftJoin(t *testing.T) {
	ctx := context.Background()
	conn := setupDB(t, "leftjoin")
	spec := datagen.DefaultSpec()
	cat, _ := seedCatalog(t, spec)

	runner := warehouse.NewRunner(conn)
	require.NoError(t, warehouse.Reset(ctx, runner, cat))
	require.NoError(t, warehouse.ETL(ctx, runner, cat))

	matched := count(t, conn, "SELECT COUNT(*) FROM songplay WHERE song_id IS NOT NULL")
	assert.Equal(t, int64(spec.Matched()), matched)

	// A play has song and artist ids exactly when its title and artist
	// match a staged song
	assert.Zero(t, count(t, conn, `
        SELECT COUNT(*) FROM songplay
        WHERE (song_id IS NULL) <> (artist_id IS NULL)`))
	assert.Zero(t, count(t, conn, `
        SELECT COUNT(*)
        FROM staging_event se
        JOIN staging_song ss ON se.song = ss.title AND se.artist = ss.artist_name
        JOIN songplay sp ON sp.start_time = TIMESTAMP 'epoch' + se.ts * INTERVAL '1 millisecond'
        WHERE se.page = 'NextSong' AND sp.song_id IS NULL`))
}

func TestTimestampsKeepMilliseconds(t *testing.T) {
	ctx := context.Background()
	conn := setupDB(t, "time")
	cat, ds := seedCatalog(t, datagen.DefaultSpec())

	runner := warehouse.NewRunner(conn)
	require.NoError(t, warehouse.Reset(ctx, runner, cat))
	require.NoError(t, warehouse.ETL(ctx, runner, cat))

	want := make(map[time.Time]bool)
	for _, e := range ds.Events {
		if e.Page == datagen.NextSongPage {
			want[time.UnixMilli(e.TS).UTC()] = true
		}
	}

	rows, err := conn.Query(ctx, "SELECT start_time, hour, day, week, month, year, weekday FROM time")
	require.NoError(t, err)
	defer rows.Close()

	seen := 0
	for rows.Next() {
		var ts time.Time
		var hour, day, week, month, year, weekday int
		require.NoError(t, rows.Scan(&ts, &hour, &day, &week, &month, &year, &weekday))
		ts = ts.UTC()

		assert.True(t, want[ts], "unexpected start_time %s", ts)
		_, isoWeek := ts.ISOWeek()
		assert.Equal(t, ts.Hour(), hour)
		assert.Equal(t, ts.Day(), day)
		assert.Equal(t, isoWeek, week)
		assert.Equal(t, int(ts.Month()), month)
		assert.Equal(t, ts.Year(), year)
		assert.Equal(t, int(ts.Weekday()), weekday)
		seen++
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, len(want), seen)
}

func TestFailedLoadKeepsEarlierCommits(t *testing.T) {
	ctx := context.Background()
	conn := setupDB(t, "failure")
	good, _ := seedCatalog(t, datagen.DefaultSpec())

	require.NoError(t, warehouse.Reset(ctx, warehouse.NewRunner(conn), good))

	broken, err := catalog.New(catalog.Config{
		Dialect:     "postgres",
		LogData:     good.Load[0].Source.Location,
		LogJSONPath: good.Load[0].Source.JSONPaths,
		SongData:    filepath.Join(t.TempDir(), "missing"),
	})
	require.NoError(t, err)

	runner := warehouse.NewRunner(conn)
	err = warehouse.ETL(ctx, runner, broken)
	require.Error(t, err)

	var stmtErr *warehouse.StatementError
	require.ErrorAs(t, err, &stmtErr)
	assert.Equal(t, catalog.StagingSongTable, stmtErr.Table)

	assert.Equal(t, int64(100), count(t, conn, "SELECT COUNT(*) FROM staging_event"))
	assert.Zero(t, count(t, conn, "SELECT COUNT(*) FROM staging_song"))
	assert.Zero(t, count(t, conn, "SELECT COUNT(*) FROM songplay"))
	assert.Len(t, runner.Results(), 1)
}

func TestTransformHandPlacedRows(t *testing.T) {
	ctx := context.Background()
	conn := setupDB(t, "rows")
	cat, _ := seedCatalog(t, datagen.DefaultSpec())

	runner := warehouse.NewRunner(conn)
	require.NoError(t, warehouse.Reset(ctx, runner, cat))

	_, err := conn.Exec(ctx, `
        INSERT INTO staging_event (page, ts, userid, level, song, artist, first_name)
        VALUES ('NextSong', 1541079972796, '39', 'free', 'Sehr kosmisch', 'Harmonia', 'Walter'),
               ('NextSong', 1541079972796, '39', 'free', 'Sehr kosmisch', 'Harmonia', 'Walter'),
               ('Home',     1541079980000, NULL, 'free', NULL, NULL, NULL)`)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, `
        INSERT INTO staging_song (song_id, title, artist_id, artist_name, year, duration)
        VALUES ('SOZCTXZ12AB0182364', 'Sehr kosmisch', 'AR5KOSW1187FB35FF4', 'Harmonia', 1974, 655.77751),
               (NULL, 'Orphan', NULL, 'Nobody', 0, 1)`)
	require.NoError(t, err)

	require.NoError(t, warehouse.Transform(ctx, runner, cat))

	// exact duplicates collapse into one play
	var start time.Time
	var songID, artistID *string
	require.NoError(t, conn.QueryRow(ctx,
		"SELECT start_time, song_id, artist_id FROM songplay").Scan(&start, &songID, &artistID))
	assert.Equal(t, time.Date(2018, 11, 1, 13, 46, 12, 796_000_000, time.UTC), start.UTC())
	require.NotNil(t, songID)
	require.NotNil(t, artistID)
	assert.Equal(t, "SOZCTXZ12AB0182364", *songID)
	assert.Equal(t, "AR5KOSW1187FB35FF4", *artistID)

	assert.Equal(t, int64(1), count(t, conn, "SELECT COUNT(*) FROM user_table"))
	assert.Equal(t, int64(1), count(t, conn, "SELECT COUNT(*) FROM song"))
	assert.Equal(t, int64(1), count(t, conn, "SELECT COUNT(*) FROM artist"))
	assert.Equal(t, int64(1), count(t, conn, "SELECT COUNT(*) FROM time"))
}
