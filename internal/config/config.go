package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultCatalogURL is the catalog API used when none is configured.
const DefaultCatalogURL = "https://jiosaavn-apix.arcadopredator.workers.dev/api"

type Config struct {
	// Catalog API settings
	Catalog CatalogConfig `koanf:"catalog"`

	// Play-history sync (enables the remote recorder when configured)
	History HistoryConfig `koanf:"history"`

	// Last.fm scrobbling (enables scrobbling when configured)
	Lastfm LastfmConfig `koanf:"lastfm"`

	// Playback overrides
	Playback PlaybackConfig `koanf:"playback"`

	// Logging
	Log LogConfig `koanf:"log"`
}

// PlaybackConfig holds playback overrides. Quality, when set, overrides the
// stored download-quality setting at startup.
type PlaybackConfig struct {
	Quality string `koanf:"quality"` // e.g. "320kbps"
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `koanf:"level"` // "debug", "info", "warn" or "error"
}

// CatalogConfig holds catalog-provider configuration.
type CatalogConfig struct {
	URL string `koanf:"url"` // base URL of the catalog API
}

// HistoryConfig holds the remote play-history sink configuration.
type HistoryConfig struct {
	Endpoint string `koanf:"endpoint"` // e.g. "https://xyz.supabase.co/rest/v1/play_history"
	APIKey   string `koanf:"apikey"`
}

// LastfmConfig holds Last.fm scrobbling configuration.
type LastfmConfig struct {
	APIKey     string `koanf:"api_key"`
	APISecret  string `koanf:"api_secret"`
	SessionKey string `koanf:"session_key"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.Catalog.URL == "" {
		cfg.Catalog.URL = DefaultCatalogURL
	}

	// Normalize URLs (remove trailing slash)
	cfg.Catalog.URL = strings.TrimSuffix(cfg.Catalog.URL, "/")
	cfg.History.Endpoint = strings.TrimSuffix(cfg.History.Endpoint, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/spiderbeats/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "spiderbeats", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// HasHistoryEndpoint returns true if the remote play-history sink is configured.
func (c *Config) HasHistoryEndpoint() bool {
	return c.History.Endpoint != ""
}

// HasLastfmConfig returns true if Last.fm scrobbling is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}
