// Package config loads graphport configuration from a TOML file.
//
// The default location is ~/.config/graphport/config.toml. A missing file
// is not an error: every field has a working default, and command-line
// flags override file values.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/graphport/graphport/pkg/errors"
)

// Config is the root configuration.
type Config struct {
	Layout    Layout    `toml:"layout"`
	ViewState ViewState `toml:"viewstate"`
	Source    Source    `toml:"source"`
	Server    Server    `toml:"server"`
	Cache     CacheCfg  `toml:"cache"`
}

// Layout configures the layout engine.
type Layout struct {
	// Engine selects the layout engine. Only "dot" is currently supported.
	Engine string `toml:"engine"`

	// GroupsOnlyScale and MinimalScale override the render scheduler's
	// level-of-detail thresholds. Zero keeps the defaults.
	GroupsOnlyScale float64 `toml:"groups_only_scale"`
	MinimalScale    float64 `toml:"minimal_scale"`
}

// ViewState configures where per-view UI state persists.
type ViewState struct {
	// Backend is one of "file", "redis", or "memory".
	Backend string `toml:"backend"`

	// Dir is the state directory for the file backend. Empty uses
	// ~/.local/state/graphport/views/.
	Dir string `toml:"dir"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`
}

// Source configures where graph snapshots come from.
type Source struct {
	// Backend is one of "file", "mongo", or "http".
	Backend string `toml:"backend"`

	// Dir is the snapshot directory for the file backend.
	Dir string `toml:"dir"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`

	// BaseURL is the API server for the http backend.
	BaseURL string `toml:"base_url"`
}

// Server configures the API server.
type Server struct {
	Addr string `toml:"addr"`
}

// CacheCfg configures the artifact cache.
type CacheCfg struct {
	// Dir is the cache directory. Empty uses ~/.cache/graphport/.
	Dir string `toml:"dir"`

	// Disabled turns off layout and snapshot caching entirely.
	Disabled bool `toml:"disabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout:    Layout{Engine: "dot"},
		ViewState: ViewState{Backend: "file"},
		Source:    Source{Backend: "file", Dir: "."},
		Server:    Server{Addr: ":8080"},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "graphport", "config.toml"), nil
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file returns Default() without error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return cfg, errors.New(errors.ErrCodeFileNotFound, "config file %q not found", path)
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %q", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %q", path)
	}
	return cfg, nil
}
