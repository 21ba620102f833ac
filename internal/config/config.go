package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Storage  StorageConfig  `koanf:"storage"`
	Server   ServerConfig   `koanf:"server"`
	Player   PlayerConfig   `koanf:"player"`
	Metadata MetadataConfig `koanf:"metadata"`
	Search   SearchConfig   `koanf:"search"`
	Log      LogConfig      `koanf:"log"`
	Desktop  DesktopConfig  `koanf:"desktop"`
}

// StorageConfig selects where tracks, playlists and history are kept.
type StorageConfig struct {
	Driver string      `koanf:"driver"` // "sqlite" or "redis" (default: "sqlite")
	Path   string      `koanf:"path"`   // SQLite file; empty means the XDG data dir
	Redis  RedisConfig `koanf:"redis"`
}

// RedisConfig holds the Redis connection used by the redis driver.
type RedisConfig struct {
	Addr     string `koanf:"addr"` // default: "127.0.0.1:6379"
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"` // key prefix (default: "tubeq:")
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `koanf:"addr"` // default: "127.0.0.1:8787"
}

// PlayerConfig holds playback settings.
type PlayerConfig struct {
	Volume int    `koanf:"volume"` // initial level when none was saved (1-100, default: 50)
	Audio  string `koanf:"audio"`  // "remote" (browser) or "local" (speaker) (default: "remote")
}

// MetadataConfig controls how pasted URLs are resolved.
type MetadataConfig struct {
	Offline   bool   `koanf:"offline"`    // derive titles from the URL, no network
	OEmbedURL string `koanf:"oembed_url"` // default: YouTube oEmbed endpoint
}

// SearchConfig controls the search collaborator.
type SearchConfig struct {
	YouTubeAPIKey string `koanf:"youtube_api_key"` // enables YouTube search when set
	Endpoint      string `koanf:"endpoint"`        // default: YouTube Data API search
	DebounceMS    int    `koanf:"debounce_ms"`     // default: 500
}

// LogConfig controls logging.
type LogConfig struct {
	Level      string `koanf:"level"`        // debug, info, warn, error (default: "info")
	File       string `koanf:"file"`         // rotated log file; empty logs to stderr only
	MaxSizeMB  int    `koanf:"max_size_mb"`  // default: 10
	MaxBackups int    `koanf:"max_backups"`  // default: 3
	MaxAgeDays int    `koanf:"max_age_days"` // default: 28
	Compress   bool   `koanf:"compress"`
}

// DesktopConfig controls Linux desktop integration.
type DesktopConfig struct {
	MPRIS         *bool `koanf:"mpris"`          // media keys and applets via MPRIS (default: true)
	Notifications *bool `koanf:"notifications"`  // now playing notifications (default: true)
	NotifyTimeout int   `koanf:"notify_timeout"` // ms, -1 = server default (default: 5000)
}

// Load reads the config files in priority order. An explicit path, when
// given, is loaded last and must exist.
func Load(explicit string) (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}
	if explicit != "" {
		if err := k.Load(file.Provider(expandPath(explicit)), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", explicit, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Storage.Path = expandPath(cfg.Storage.Path)
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.Metadata.OEmbedURL = strings.TrimSuffix(cfg.Metadata.OEmbedURL, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/tubeq/config.toml
		filepath.Join(xdg.ConfigHome, "tubeq", "config.toml"),
		// 2. ./config.toml (pwd)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasYouTubeSearch returns true if YouTube search is configured.
func (c *Config) HasYouTubeSearch() bool {
	return c.Search.YouTubeAPIKey != ""
}

// GetStorageConfig returns the storage configuration with defaults applied.
// Path stays empty when unset; the store picks its own default location.
func (c *Config) GetStorageConfig() StorageConfig {
	cfg := c.Storage

	cfg.Driver = strings.ToLower(cfg.Driver)
	if cfg.Driver != "redis" {
		cfg.Driver = "sqlite"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "tubeq:"
	}
	if cfg.Redis.DB < 0 {
		cfg.Redis.DB = 0
	}

	return cfg
}

// GetServerConfig returns the server configuration with defaults applied.
func (c *Config) GetServerConfig() ServerConfig {
	cfg := c.Server
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	return cfg
}

// GetPlayerConfig returns the player configuration with defaults applied.
func (c *Config) GetPlayerConfig() PlayerConfig {
	cfg := c.Player
	if cfg.Volume <= 0 || cfg.Volume > 100 {
		cfg.Volume = 50
	}
	cfg.Audio = strings.ToLower(cfg.Audio)
	if cfg.Audio != "local" {
		cfg.Audio = "remote"
	}
	return cfg
}

// GetSearchConfig returns the search configuration with defaults applied.
func (c *Config) GetSearchConfig() SearchConfig {
	cfg := c.Search
	if cfg.DebounceMS <= 0 {
		cfg.DebounceMS = 500
	}
	return cfg
}

// GetLogConfig returns the logging configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log

	cfg.Level = strings.ToLower(cfg.Level)
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		cfg.Level = "info"
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 28
	}

	return cfg
}

// MPRISEnabled reports whether the player is exposed over MPRIS.
func (c *Config) MPRISEnabled() bool {
	return boolOr(c.Desktop.MPRIS, true)
}

// NotificationsEnabled reports whether now playing notifications are sent.
func (c *Config) NotificationsEnabled() bool {
	return boolOr(c.Desktop.Notifications, true)
}

// GetNotifyTimeout returns the notification timeout in milliseconds.
func (c *Config) GetNotifyTimeout() int32 {
	switch {
	case c.Desktop.NotifyTimeout < 0:
		return -1
	case c.Desktop.NotifyTimeout == 0:
		return 5000
	default:
		return int32(c.Desktop.NotifyTimeout)
	}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
