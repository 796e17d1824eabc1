// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Admin     AdminConfig     `yaml:"admin"`
	Spotify   SpotifyConfig   `yaml:"spotify"`
	Ticketing TicketingConfig `yaml:"ticketing"`
	LastFm    LastFmConfig    `yaml:"lastfm"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Playlist  PlaylistConfig  `yaml:"playlist"`
	Playback  PlaybackConfig  `yaml:"playback"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// AdminConfig represents admin-related configuration.
type AdminConfig struct {
	Token string `yaml:"token" validate:"required"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" validate:"required"`
	RefreshToken string `yaml:"refresh_token" validate:"required"`
	Market       string `yaml:"market" validate:"omitempty,len=2|eq=from_token" default:"from_token"`
}

// TicketingConfig represents ticketing API configuration.
type TicketingConfig struct {
	ClientID          string         `yaml:"client_id" validate:"required"`
	BaseURL           string         `yaml:"base_url" default:"https://api.seatgeek.com/2" validate:"omitempty,url"`
	TimeoutSec        int            `yaml:"timeout_sec" default:"10" validate:"omitempty,gte=1,lte=120"`
	RequestsPerSecond float64        `yaml:"requests_per_second" validate:"gte=0"`
	StartTime         string         `yaml:"start_time"`
	EndTime           string         `yaml:"end_time"`
	Search            map[string]any `yaml:"search" validate:"required"`
}

// LastFmConfig represents the optional Last.fm genre fallback.
// The fallback is disabled when APIKey is empty.
type LastFmConfig struct {
	APIKey   string `yaml:"api_key"`
	TagLimit int    `yaml:"tag_limit" default:"5" validate:"omitempty,gte=1,lte=50"`
}

// DiscoveryConfig represents discovery pipeline behaviour.
type DiscoveryConfig struct {
	OnStart         bool `yaml:"on_start"`
	DisableAutoplay bool `yaml:"disable_autoplay"`
}

// PlaylistConfig represents playlist writer configuration.
type PlaylistConfig struct {
	DefaultName string `yaml:"default_name" default:"gigbox discoveries"`
	Description string `yaml:"description" default:"Concert discoveries from gigbox"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	DefaultRepeat string `yaml:"default_repeat" default:"context" validate:"omitempty,oneof=track context off"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("SEATGEEK_CLIENT_ID"); v != "" {
		c.Ticketing.ClientID = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.LastFm.APIKey = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Admin.Token = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if err := c.validateTimeConsistency(); err != nil {
		return err
	}

	return nil
}

// validateTimeConsistency checks that a fixed ticketing window ends after it starts.
func (c *Config) validateTimeConsistency() error {
	_, _, err := c.TicketingWindow()
	return err
}

// TicketingWindow returns the fixed ticketing window bounds. A nil bound is
// open and filled in relative to the time of each search.
func (c *Config) TicketingWindow() (start, end *time.Time, err error) {
	start, err = c.ParseStartTime()
	if err != nil {
		return nil, nil, err
	}
	end, err = c.ParseEndTime()
	if err != nil {
		return nil, nil, err
	}

	if start != nil && end != nil && !start.Before(*end) {
		return nil, nil, errors.Newf("start_time (%s) must be before end_time (%s)", c.Ticketing.StartTime, c.Ticketing.EndTime)
	}
	return start, end, nil
}

// ParseStartTime parses the ticketing window start.
// Returns nil if the start time is empty.
func (c *Config) ParseStartTime() (*time.Time, error) {
	if c.Ticketing.StartTime == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, c.Ticketing.StartTime)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse start_time")
	}
	return &t, nil
}

// ParseEndTime parses the ticketing window end.
// Returns nil if the end time is empty.
func (c *Config) ParseEndTime() (*time.Time, error) {
	if c.Ticketing.EndTime == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, c.Ticketing.EndTime)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse end_time")
	}
	return &t, nil
}

// LastFmEnabled reports whether the Last.fm genre fallback is configured.
func (c *Config) LastFmEnabled() bool {
	return c.LastFm.APIKey != ""
}
