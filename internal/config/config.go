// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath      = "config.toml"
	DefaultHTTPAddr        = ":8080"
	DefaultPGHost          = "127.0.0.1"
	DefaultPGPort          = 5432
	DefaultPGUser          = "postgres"
	DefaultPGDatabase      = "kairos"
	DefaultPGSSLMode       = "disable"
	DefaultGraphTimeout    = 30
	DefaultOracleModel     = "gpt-4o-mini"
	DefaultOracleTimeout   = 30
	DefaultCacheSize       = 1000
	DefaultCacheTTLSeconds = 300
	DefaultScoreThreshold  = 90
	DefaultScoreMargin     = 5
	DefaultSlotMinutes     = 30
	DefaultWindowDays      = 7
	DefaultTimezone        = "Europe/Kyiv"
	DefaultBriefingCron    = "0 9 * * 1-5"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log        LogConfig        `toml:"log"`
	Server     ServerConfig     `toml:"server"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Graph      GraphConfig      `toml:"graph"`
	Oracle     OracleConfig     `toml:"oracle"`
	Resolver   ResolverConfig   `toml:"resolver"`
	Scheduling SchedulingConfig `toml:"scheduling"`
	Briefing   BriefingConfig   `toml:"briefing"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// GraphConfig holds the directory/calendar API base URL, access token, and timeout.
// An empty base URL switches the application to the local Postgres directory.
type GraphConfig struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the HTTP timeout for graph calls.
func (c GraphConfig) Timeout() time.Duration {
	seconds := c.TimeoutSeconds
	if seconds <= 0 {
		seconds = DefaultGraphTimeout
	}
	return time.Duration(seconds) * time.Second
}

// OracleConfig holds the disambiguation model endpoint (OpenAI-compatible).
type OracleConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the HTTP timeout for oracle calls.
func (c OracleConfig) Timeout() time.Duration {
	seconds := c.TimeoutSeconds
	if seconds <= 0 {
		seconds = DefaultOracleTimeout
	}
	return time.Duration(seconds) * time.Second
}

// ResolverConfig holds participant resolution tuning: cache bounds and
// similarity scoring thresholds.
type ResolverConfig struct {
	CacheSize       int `toml:"cache_size"`
	CacheTTLSeconds int `toml:"cache_ttl_seconds"`
	ScoreThreshold  int `toml:"score_threshold"`
	ScoreMargin     int `toml:"score_margin"`
}

// CacheTTL returns the result cache time-to-live.
func (c ResolverConfig) CacheTTL() time.Duration {
	seconds := c.CacheTTLSeconds
	if seconds <= 0 {
		seconds = DefaultCacheTTLSeconds
	}
	return time.Duration(seconds) * time.Second
}

// SchedulingConfig holds timeline and free-time search defaults.
type SchedulingConfig struct {
	SlotMinutes int    `toml:"slot_minutes"`
	WindowDays  int    `toml:"window_days"`
	Timezone    string `toml:"timezone"`
}

// Location resolves the configured timezone, falling back to UTC on error.
func (c SchedulingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BriefingConfig holds the daily briefing cron pattern and recipients.
type BriefingConfig struct {
	Enabled    bool     `toml:"enabled"`
	Pattern    string   `toml:"pattern"`
	Recipients []string `toml:"recipients"`
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Graph: GraphConfig{
			TimeoutSeconds: DefaultGraphTimeout,
		},
		Oracle: OracleConfig{
			Model:          DefaultOracleModel,
			TimeoutSeconds: DefaultOracleTimeout,
		},
		Resolver: ResolverConfig{
			CacheSize:       DefaultCacheSize,
			CacheTTLSeconds: DefaultCacheTTLSeconds,
			ScoreThreshold:  DefaultScoreThreshold,
			ScoreMargin:     DefaultScoreMargin,
		},
		Scheduling: SchedulingConfig{
			SlotMinutes: DefaultSlotMinutes,
			WindowDays:  DefaultWindowDays,
			Timezone:    DefaultTimezone,
		},
		Briefing: BriefingConfig{
			Pattern: DefaultBriefingCron,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
