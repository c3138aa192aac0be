// Package cli implements the graphport command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/graphport/graphport/pkg/buildinfo"
	"github.com/graphport/graphport/pkg/cache"
	"github.com/graphport/graphport/pkg/config"
	"github.com/graphport/graphport/pkg/errors"
	"github.com/graphport/graphport/pkg/source"
	"github.com/graphport/graphport/pkg/viewstate"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "graphport"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "graphport",
		Short:        "Graphport explores asset dependency graphs interactively",
		Long:         `Graphport is an interactive explorer for asset dependency graphs: it lays out snapshots with graphviz, lets you expand and collapse groups, navigate and select assets, and serves snapshots over HTTP for remote views.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/graphport/config.toml)")

	// Register all subcommands
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.stateCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the config file named by --config, or the default one.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// =============================================================================
// Backend Factories
// =============================================================================

// newArtifactCache builds the layout/snapshot cache. Any failure degrades
// to a null cache; caching is an optimization, never a requirement.
func newArtifactCache(cfg config.CacheCfg, noCache bool) cache.Cache {
	if noCache || cfg.Disabled {
		return cache.NewNullCache()
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache()
		}
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// newSourceProvider builds the snapshot source for the configured backend.
// The returned func releases backend resources and is always non-nil on
// success.
func newSourceProvider(ctx context.Context, cfg config.Source) (source.Provider, func(), error) {
	switch cfg.Backend {
	case "", "file":
		return source.NewFileProvider(cfg.Dir), func() {}, nil
	case "http":
		return source.NewHTTPProvider(cfg.BaseURL, nil), func() {}, nil
	case "mongo":
		p, err := source.NewMongoProvider(ctx, source.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			return nil, nil, err
		}
		return p, func() { _ = p.Close(context.Background()) }, nil
	default:
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "unknown source backend %q", cfg.Backend)
	}
}

// newStateStore builds the view-state store for the configured backend.
func newStateStore(ctx context.Context, cfg config.ViewState) (viewstate.Store, error) {
	switch cfg.Backend {
	case "", "file":
		return viewstate.NewFileStore(cfg.Dir)
	case "redis":
		return viewstate.NewRedisStore(ctx, viewstate.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	case "memory":
		return viewstate.NewMemoryStore(), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown viewstate backend %q", cfg.Backend)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/graphport/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
