package catalog

// Transform SQL is shared by every dialect. It sticks to constructs both
// PostgreSQL and Redshift accept.

// songplayInsert matches plays to songs on exact title and artist name. The
// match is case and whitespace sensitive; unmatched plays keep null song and
// artist ids. ts is epoch milliseconds.
const songplayInsert = `
INSERT INTO songplay (start_time, user_id, level, song_id, artist_id, session_id, location, user_agent)
SELECT DISTINCT
    TIMESTAMP 'epoch' + se.ts * INTERVAL '1 millisecond' AS start_time,
    se.userid AS user_id,
    se.level,
    ss.song_id,
    ss.artist_id,
    se.sessionid AS session_id,
    se.location,
    se.useragent AS user_agent
FROM staging_event se
LEFT JOIN staging_song ss
    ON se.song = ss.title
   AND se.artist = ss.artist_name
WHERE se.page = 'NextSong'`

// userInsert keeps one row per user; the most recent play decides the level.
const userInsert = `
INSERT INTO user_table (user_id, first_name, last_name, gender, level)
SELECT user_id, first_name, last_name, gender, level
FROM (
    SELECT
        userid AS user_id,
        first_name,
        last_name,
        gender,
        level,
        ROW_NUMBER() OVER (PARTITION BY userid ORDER BY ts DESC) AS rn
    FROM staging_event
    WHERE userid IS NOT NULL
      AND page = 'NextSong'
) u
WHERE rn = 1`

const songInsert = `
INSERT INTO song (song_id, title, artist_id, year, duration)
SELECT song_id, title, artist_id, year, duration
FROM (
    SELECT
        song_id,
        title,
        artist_id,
        year,
        duration,
        ROW_NUMBER() OVER (PARTITION BY song_id ORDER BY title, artist_id) AS rn
    FROM staging_song
    WHERE song_id IS NOT NULL
) s
WHERE rn = 1`

const artistInsert = `
INSERT INTO artist (artist_id, name, location, latitude, longitude)
SELECT artist_id, name, location, latitude, longitude
FROM (
    SELECT
        artist_id,
        artist_name AS name,
        artist_location AS location,
        artist_latitude AS latitude,
        artist_longitude AS longitude,
        ROW_NUMBER() OVER (PARTITION BY artist_id ORDER BY artist_name) AS rn
    FROM staging_song
    WHERE artist_id IS NOT NULL
) a
WHERE rn = 1`

// timeInsert reads songplay, so it must run after songplayInsert.
const timeInsert = `
INSERT INTO time (start_time, hour, day, week, month, year, weekday)
SELECT DISTINCT
    start_time,
    EXTRACT(hour FROM start_time),
    EXTRACT(day FROM start_time),
    EXTRACT(week FROM start_time),
    EXTRACT(month FROM start_time),
    EXTRACT(year FROM start_time),
    EXTRACT(dow FROM start_time)
FROM songplay`

func transformStatements() []Statement {
	stmts := []struct {
		table string
		sql   string
	}{
		{SongplayTable, songplayInsert},
		{UserTable, userInsert},
		{SongTable, songInsert},
		{ArtistTable, artistInsert},
		{TimeTable, timeInsert},
	}

	out := make([]Statement, len(stmts))
	for i, s := range stmts {
		out[i] = Statement{
			Name:  s.table + "_insert",
			Kind:  KindTransform,
			Table: s.table,
			SQL:   s.sql,
		}
	}
	return out
}
