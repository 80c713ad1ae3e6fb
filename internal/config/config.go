// Package config loads the dashboard configuration from a TOML file.
// Spotify credentials stay in the environment; the file carries tuning
// knobs with working defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jonjanego/spotify-library-curation/internal/analysis"
)

//go:embed config.example.toml
var exampleConf []byte

// Config is the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Cache    CacheConfig    `toml:"cache"`
	Analysis AnalysisConfig `toml:"analysis"`
	Curation CurationConfig `toml:"curation"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr        string `toml:"addr"`
	OpenBrowser bool   `toml:"open_browser"`
}

// CacheConfig holds library snapshot cache settings.
type CacheConfig struct {
	// Path of the snapshot file. Empty means the default under the
	// user config directory.
	Path       string `toml:"path"`
	TTLMinutes int    `toml:"ttl_minutes"`
}

// AnalysisConfig exposes the album notability thresholds. These are
// product heuristics, kept configurable on purpose.
type AnalysisConfig struct {
	MinTotalTracks      int `toml:"min_total_tracks"`
	NotablePercent      int `toml:"notable_percent"`
	PartialPercent      int `toml:"partial_percent"`
	PartialLikedCount   int `toml:"partial_liked_count"`
	MembershipBatchSize int `toml:"membership_batch_size"`
}

// CurationConfig tunes the bulk mutation loops.
type CurationConfig struct {
	RemoveBatchSize    int     `toml:"remove_batch_size"`
	PlaylistBatchSize  int     `toml:"playlist_batch_size"`
	AppendAttempts     int     `toml:"append_attempts"`
	BackoffSeconds     int     `toml:"backoff_seconds"`
	RequestsPerSecond  float64 `toml:"requests_per_second"`
	FetchRetryAttempts int     `toml:"fetch_retry_attempts"`
}

// Load reads and parses a TOML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return config, nil
}

// LoadOrDefault loads the config at path, falling back to the embedded
// defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Default returns the embedded default configuration.
func Default() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("parsing embedded default config: %v", err))
	}
	return &config
}

// AlbumConfig converts the analysis section into the core's threshold
// struct.
func (c *Config) AlbumConfig() analysis.AlbumConfig {
	return analysis.AlbumConfig{
		MinTotalTracks:      c.Analysis.MinTotalTracks,
		NotablePercent:      c.Analysis.NotablePercent,
		PartialPercent:      c.Analysis.PartialPercent,
		PartialLikedCount:   c.Analysis.PartialLikedCount,
		MembershipBatchSize: c.Analysis.MembershipBatchSize,
	}
}

// CacheTTL returns the snapshot freshness window.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// BackoffUnit returns the linear retry backoff unit.
func (c *Config) BackoffUnit() time.Duration {
	return time.Duration(c.Curation.BackoffSeconds) * time.Second
}
