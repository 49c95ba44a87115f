// Package config provides configuration management for the powerdraw service.
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/jonesrussell/powerdraw/internal/logger"
)

// Config is the full application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Source   SourceConfig   `mapstructure:"source"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Game     GameConfig     `mapstructure:"game"`
	Log      logger.Config  `mapstructure:"log"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// DatabaseConfig holds sqlite storage settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SourceConfig describes the upstream provider endpoints.
type SourceConfig struct {
	// BaseURL is the provider site root.
	BaseURL string `mapstructure:"base_url"`
	// PastResultsPath is the trailing-window HTML results page.
	PastResultsPath string `mapstructure:"past_results_path"`
	// ArchivePathFormat is the per-year HTML archive page; %d is the year.
	ArchivePathFormat string `mapstructure:"archive_path_format"`
	// APIRecentPath is the bulk recent-draws JSON feed.
	APIRecentPath string `mapstructure:"api_recent_path"`
	// APIRangePaths are range-scoped JSON query endpoints tried in order;
	// %d/%d are the range's start and end year boundaries.
	APIRangePaths []string `mapstructure:"api_range_paths"`
	// UserAgent is sent on every upstream request.
	UserAgent string `mapstructure:"user_agent"`
	// AcceptLanguage is sent on every upstream request.
	AcceptLanguage string `mapstructure:"accept_language"`
}

// FetchConfig holds HTTP fetch and retry settings.
type FetchConfig struct {
	Retries      int           `mapstructure:"retries"`
	BackoffBase  time.Duration `mapstructure:"backoff_base"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// SyncConfig holds sync orchestration settings.
type SyncConfig struct {
	// YearStart is the first archive year to resolve.
	YearStart int `mapstructure:"year_start"`
	// TrailingDays is the recency window resolved after the year loop.
	TrailingDays int `mapstructure:"trailing_days"`
	// Cron is the recurring sync schedule in crontab format.
	Cron string `mapstructure:"cron"`
	// InitialSync runs a sync on scheduler startup when true.
	InitialSync bool `mapstructure:"initial_sync"`
}

// GameConfig holds the number-domain bounds. These are tuned to the
// observed provider and kept configurable rather than hard-coded.
type GameConfig struct {
	MainCount    int `mapstructure:"main_count"`
	MainMax      int `mapstructure:"main_max"`
	PowerballMax int `mapstructure:"powerball_max"`
}

// Load reads the viper-managed settings into a typed Config.
// InitializeViper must have been called first.
func Load() (*Config, error) {
	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}

	if decodeErr := decoder.Decode(viper.AllSettings()); decodeErr != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", decodeErr)
	}

	return &cfg, nil
}
