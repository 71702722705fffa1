// File: cmd/root.go
package cmd

import (
	"fmt"
	"os"
	"time"

	"ctxgather/pkg/cache"
	"ctxgather/pkg/logging"
	"ctxgather/pkg/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	appName = "ctxgather"

	envCacheDir   = "CTXGATHER_CACHE_DIR"   // Overrides the default cache directory.
	envIgnoreFile = "CTXGATHER_IGNORE_FILE" // Global ignore file applied to every run.

	// localIgnoreFile is read from every root when present.
	localIgnoreFile = ".ctxgatherignore"
)

// globalOptions are the persistent flags shared by all subcommands.
type globalOptions struct {
	cacheDir        string        // Cache directory; empty means env or user cache dir.
	cacheTTL        time.Duration // Maximum age of cache records.
	cacheMaxEntries int           // Record budget across all namespaces.
	debug           bool          // Switch to the development logger.
}

// app carries state from the root command into subcommands.
type app struct {
	logger *zap.Logger
	global globalOptions
}

// NewRootCommand builds the ctxgather command tree around logger.
func NewRootCommand(logger *zap.Logger) *cobra.Command {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &app{logger: logger}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Gather a relevance-filtered slice of a codebase as markdown",
		Long: `ctxgather walks one or more source directories, drops dependency caches, build
output, lock files, binaries and (by default) tests, optionally asks an external judge
which further paths are irrelevant, and renders the survivors as a single markdown
document: a directory tree followed by one fenced block per file.

Whole runs and judge replies are cached on disk.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !a.global.debug {
				return nil
			}
			debugLogger, err := logging.Setup(true, appName, version.Version)
			if err != nil {
				return fmt.Errorf("failed to initialize debug logger: %w", err)
			}
			a.logger = debugLogger
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.global.cacheDir, "cache-dir", "", "Cache directory (default $"+envCacheDir+" or the user cache directory)")
	flags.DurationVar(&a.global.cacheTTL, "cache-ttl", cache.DefaultTTL, "Maximum age of cached results")
	flags.IntVar(&a.global.cacheMaxEntries, "cache-max-entries", cache.DefaultMaxEntries, "Maximum number of cached records across all namespaces")
	flags.BoolVar(&a.global.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newGatherCommand(a))
	cmd.AddCommand(newCacheCommand(a))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// Execute runs the root command with os.Args.
func Execute(logger *zap.Logger) error {
	return NewRootCommand(logger).Execute()
}

func (a *app) cacheDir() (string, error) {
	if a.global.cacheDir != "" {
		return a.global.cacheDir, nil
	}
	if dir := os.Getenv(envCacheDir); dir != "" {
		return dir, nil
	}
	return cache.DefaultDir()
}

func (a *app) openCache() (*cache.Store, error) {
	dir, err := a.cacheDir()
	if err != nil {
		return nil, err
	}
	return cache.New(cache.Config{
		Dir:        dir,
		TTL:        a.global.cacheTTL,
		MaxEntries: a.global.cacheMaxEntries,
	}, a.logger)
}
