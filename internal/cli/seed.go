package cli

import (
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-starload/internal/datagen"
	"github.com/pgEdge/pgedge-starload/internal/logging"
)

var (
	seedOutDir     string
	seedEvents     int
	seedNextSong   int
	seedSongs      int
	seedUsers      int
	seedMatchRatio float64
	seedRandomSeed uint64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write a synthetic event log and song catalog",
	Long: `Generate a synthetic dataset laid out like the staged source data:
newline-delimited event logs under log_data/, one JSON file per song under
song_data/, and a JSONPaths file for the staging_event table.

Point s3.log_data, s3.log_jsonpath and s3.song_data at the output and run
etl with the postgres dialect to load it.

Example:
  pgedge-starload seed --out data --events 10000 --next-song-events 8000`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedOutDir, "out", "",
		"output directory (default: data)")
	seedCmd.Flags().IntVar(&seedEvents, "events", 0,
		"total number of events")
	seedCmd.Flags().IntVar(&seedNextSong, "next-song-events", 0,
		"number of song play (NextSong) events")
	seedCmd.Flags().IntVar(&seedSongs, "songs", 0,
		"number of catalog songs")
	seedCmd.Flags().IntVar(&seedUsers, "users", 0,
		"number of listeners")
	seedCmd.Flags().Float64Var(&seedMatchRatio, "match-ratio", -1,
		"share of song plays that match a catalog song (0-1)")
	seedCmd.Flags().Uint64Var(&seedRandomSeed, "seed", 0,
		"random seed for reproducible output (0 = random)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if seedOutDir != "" {
		cfg.Seed.OutDir = seedOutDir
	}
	if seedEvents > 0 {
		cfg.Seed.Events = seedEvents
	}
	if cmd.Flags().Changed("next-song-events") {
		cfg.Seed.NextSongEvents = seedNextSong
	}
	if seedSongs > 0 {
		cfg.Seed.Songs = seedSongs
	}
	if seedUsers > 0 {
		cfg.Seed.Users = seedUsers
	}
	if seedMatchRatio >= 0 {
		cfg.Seed.MatchRatio = seedMatchRatio
	}
	if seedRandomSeed > 0 {
		cfg.Seed.RandomSeed = seedRandomSeed
	}

	if err := cfg.ValidateSeed(); err != nil {
		return err
	}

	spec := datagen.Spec{
		EventCount:    cfg.Seed.Events,
		NextSongCount: cfg.Seed.NextSongEvents,
		SongCount:     cfg.Seed.Songs,
		UserCount:     cfg.Seed.Users,
		MatchRatio:    cfg.Seed.MatchRatio,
		Seed:          cfg.Seed.RandomSeed,
	}

	logging.Info().
		Int("events", spec.EventCount).
		Int("next_song_events", spec.NextSongCount).
		Int("songs", spec.SongCount).
		Int("users", spec.UserCount).
		Float64("match_ratio", spec.MatchRatio).
		Msg("Generating dataset")

	ds, err := datagen.Generate(spec)
	if err != nil {
		return err
	}

	m, err := datagen.WriteDataset(cfg.Seed.OutDir, ds)
	if err != nil {
		return err
	}

	logging.Info().
		Str("log_data", m.LogData).
		Str("log_jsonpath", m.JSONPaths).
		Str("song_data", m.SongData).
		Int("event_files", m.EventFiles).
		Int("song_files", m.SongFiles).
		Str("size", datagen.FormatSize(m.Bytes)).
		Msg("Dataset written")
	return nil
}
