// Package cli implements the plugindex command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/plugindex/plugindex/pkg/buildinfo"
	"github.com/plugindex/plugindex/pkg/cache"
)

// appName is the application name used for directories and display.
const appName = "plugindex"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Plugindex builds a canonical registry of plugin metadata",
		Long:         `Plugindex fetches metadata for every curated plugin repository from the GitHub API, validates it against the plugin descriptor schema, classifies staleness, and renders a deterministic plugins.json plus a human-readable README.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.pruneCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newCacheStore builds the response cache selected by --cache:
// "off" disables caching, "redis://host:port" shares a Redis server,
// anything else (including empty) uses the default file cache.
func newCacheStore(ctx context.Context, mode string) (cache.Cache, error) {
	switch {
	case mode == "off":
		return cache.NewNullCache(), nil
	case strings.HasPrefix(mode, "redis://"):
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr: strings.TrimPrefix(mode, "redis://"),
		})
	default:
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// cacheDir returns the cache directory using XDG standard (~/.cache/plugindex/).
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
