// Package cli implements the grunt command-line interface.
//
// # Commands
//
//   - generate: build a model from a recipe and export it
//   - axis: build and print an axis
//   - validate: check the layers of an export against their recipes
//   - models: list, show, export, view and delete stored models
//   - recipe: write a starter recipe and check recipe files
//   - serve: run the HTTP API
//   - cache: manage the local model cache
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/grunt/pkg/buildinfo"
	"github.com/matzehuels/grunt/pkg/cache"
	"github.com/matzehuels/grunt/pkg/export"
	"github.com/matzehuels/grunt/pkg/pipeline"
	"github.com/matzehuels/grunt/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "grunt"

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
		Short:        "Grunt generates layered 3D geological models",
		Long:         `Grunt builds block models from a recipe: two axes, a set of border layers with per-layer limits and generation policies, and fill values. Models can be exported to JSON, stored, and served over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.axisCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.modelsCommand())
	root.AddCommand(c.recipeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use, backed by the local cache
// and, when withStore is set, the local model store.
func (c *CLI) newRunner(noCache, withStore bool) (*pipeline.Runner, error) {
	ch, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(ch, nil, c.Logger)
	if withStore {
		st, err := newStore()
		if err != nil {
			_ = runner.Close()
			return nil, err
		}
		runner.Store = st
	}
	return runner, nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

func newStore() (store.Store, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	return store.NewFileStore(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/grunt/).
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

// dataDir returns the model store directory (~/.local/share/grunt/models/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName, "models"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "models"), nil
}

// parseSections parses the --sections flag. Empty means all sections.
func parseSections(s string) ([]export.Section, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return export.ParseSections(s)
}
