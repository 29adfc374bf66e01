//-------------------------------------------------------------------------
//
// pgEdge Star Schema Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-starload.
// Configuration is loaded from a config file and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/pgEdge/pgedge-starload/internal/catalog"
)

// DefaultConfigName is the config file looked up in the working directory
// when no explicit path is given.
const DefaultConfigName = "dwh"

// Config holds all configuration for pgedge-starload.
type Config struct {
	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Dialect selects the SQL flavour the catalog is rendered for.
	Dialect string `mapstructure:"dialect"`

	// Cluster holds the warehouse connection target.
	Cluster ClusterConfig `mapstructure:"cluster"`

	// S3 holds the dataset locations.
	S3 StorageConfig `mapstructure:"s3"`

	// IAMRole holds the role the warehouse assumes to read the datasets.
	IAMRole IAMRoleConfig `mapstructure:"iam_role"`

	// Seed holds defaults for the seed subcommand.
	Seed SeedConfig `mapstructure:"seed"`
}

// ClusterConfig describes how to reach the warehouse.
type ClusterConfig struct {
	Host       string `mapstructure:"host"`
	DBName     string `mapstructure:"db_name"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBPort     int    `mapstructure:"db_port"`

	// Region is the object store region passed to the bulk-load command.
	Region string `mapstructure:"region"`

	// SSLMode is passed through to the driver when set.
	SSLMode string `mapstructure:"sslmode"`

	// ConnectTimeout is the dial timeout in seconds.
	ConnectTimeout int `mapstructure:"connect_timeout"`
}

// StorageConfig holds the object store locations of both datasets.
type StorageConfig struct {
	// LogData is the key prefix of the event log dataset.
	LogData string `mapstructure:"log_data"`

	// LogJSONPath is the JSONPaths file mapping event fields to columns.
	LogJSONPath string `mapstructure:"log_jsonpath"`

	// SongData is the key prefix of the song catalog dataset.
	SongData string `mapstructure:"song_data"`
}

// IAMRoleConfig identifies the access role.
type IAMRoleConfig struct {
	ARN string `mapstructure:"arn"`
}

// SeedConfig controls synthetic dataset generation.
type SeedConfig struct {
	// OutDir is the directory the dataset is written to.
	OutDir string `mapstructure:"out_dir"`

	Events         int     `mapstructure:"events"`
	NextSongEvents int     `mapstructure:"next_song_events"`
	Songs          int     `mapstructure:"songs"`
	Users          int     `mapstructure:"users"`
	MatchRatio     float64 `mapstructure:"match_ratio"`

	// RandomSeed makes generation reproducible when non-zero.
	RandomSeed uint64 `mapstructure:"random_seed"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Dialect:  catalog.DefaultDialect,
		Cluster: ClusterConfig{
			DBPort:         5439,
			ConnectTimeout: 30,
		},
		Seed: SeedConfig{
			OutDir:         "data",
			Events:         100,
			NextSongEvents: 50,
			Songs:          10,
			Users:          20,
			MatchRatio:     0.6,
		},
	}
}

// Load reads configuration from a config file.
// When configFile is empty, ./dwh.yaml is used if it exists.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName(DefaultConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the connection target is complete.
func (c *Config) Validate() error {
	if c.Cluster.Host == "" {
		return fmt.Errorf("cluster.host is required")
	}
	if c.Cluster.DBName == "" {
		return fmt.Errorf("cluster.db_name is required")
	}
	if c.Cluster.DBUser == "" {
		return fmt.Errorf("cluster.db_user is required")
	}
	if c.Cluster.DBPort < 1 || c.Cluster.DBPort > 65535 {
		return fmt.Errorf("cluster.db_port must be between 1 and 65535")
	}
	if c.Cluster.ConnectTimeout < 0 {
		return fmt.Errorf("cluster.connect_timeout must be non-negative")
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	s := c.Seed
	if s.OutDir == "" {
		return fmt.Errorf("seed.out_dir is required")
	}
	if s.Events < 1 {
		return fmt.Errorf("seed.events must be at least 1")
	}
	if s.NextSongEvents < 0 || s.NextSongEvents > s.Events {
		return fmt.Errorf("seed.next_song_events must be between 0 and seed.events")
	}
	if s.Songs < 1 {
		return fmt.Errorf("seed.songs must be at least 1")
	}
	if s.Users < 1 {
		return fmt.Errorf("seed.users must be at least 1")
	}
	if s.MatchRatio < 0 || s.MatchRatio > 1 {
		return fmt.Errorf("seed.match_ratio must be between 0 and 1")
	}
	return nil
}

// CatalogConfig returns the values the query catalog is rendered from.
func (c *Config) CatalogConfig() catalog.Config {
	return catalog.Config{
		Dialect:     c.Dialect,
		Region:      c.Cluster.Region,
		LogData:     c.S3.LogData,
		LogJSONPath: c.S3.LogJSONPath,
		SongData:    c.S3.SongData,
		RoleARN:     c.IAMRole.ARN,
	}
}

// ConnString renders the cluster section as a keyword/value connection string.
func (c *ClusterConfig) ConnString() string {
	params := map[string]string{
		"host":   c.Host,
		"dbname": c.DBName,
		"user":   c.DBUser,
		"port":   strconv.Itoa(c.DBPort),
	}
	if c.DBPassword != "" {
		params["password"] = c.DBPassword
	}
	if c.SSLMode != "" {
		params["sslmode"] = c.SSLMode
	}
	if c.ConnectTimeout > 0 {
		params["connect_timeout"] = strconv.Itoa(c.ConnectTimeout)
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+quoteConnValue(params[k]))
	}
	return strings.Join(parts, " ")
}

// quoteConnValue quotes a keyword/value connection string value when it is
// empty or contains whitespace, quotes or backslashes.
func quoteConnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n'\\") {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
