// File: cmd/gather.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ctxgather/pkg/cache"
	"ctxgather/pkg/gather"
	"ctxgather/pkg/ignore"
	"ctxgather/pkg/paths"
	"ctxgather/pkg/reader"
	"ctxgather/pkg/reduce"
	"ctxgather/pkg/relevance"
	"ctxgather/pkg/tree"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// gatherOptions holds the flags of the gather command.
type gatherOptions struct {
	excludes           []string // Manual exclusion patterns (--exclude).
	junkDirs           []string // Extra directory names to pre-filter.
	ignoreFile         string   // Global ignore file; falls back to CTXGATHER_IGNORE_FILE.
	judgeCmd           string   // External judge command, split on whitespace.
	judgeOptional      bool     // Continue without extra exclusions when the judge fails.
	compress           bool     // Run the reducer.
	signaturesOnly     bool     // Keep declarations only.
	stripComments      bool     // Drop comments when compressing.
	minimizeWhitespace bool     // Collapse blank lines when compressing.
	maxFileLines       int      // Per-file line budget when compressing.
	allowTests         bool     // Keep test files and directories.
	maxFileSize        string   // Per-file size budget, e.g. "64KiB".
	maxDepth           int      // Tree and walk depth.
	maxItems           int      // Tree item cap.
	sortSize           bool     // Sort the tree by size.
	noCache            bool     // Bypass the result cache.
	output             string   // Markdown destination; empty means stdout.
	report             string   // YAML diagnostics destination.
}

func newGatherCommand(a *app) *cobra.Command {
	defaults := reduce.DefaultOptions()
	o := &gatherOptions{}

	cmd := &cobra.Command{
		Use:   "gather [paths...]",
		Short: "Render the relevant part of one or more directories as markdown",
		Long: `Gather walks each path (default "."), applies the built-in pre-filter, the ignore
files and every --exclude pattern, and writes the tree plus file contents as markdown.

Patterns are directory or file names ("fixtures", "CHANGELOG.md") or trailing-extension
globs ("*.snap"). Ignore files hold one pattern per line; "#" starts a comment. Each root
may carry a ` + localIgnoreFile + ` file.

--judge-cmd runs an external command with the exclusion prompt on stdin and reads a
JSON array of extra patterns (or one pattern per line) from its stdout.`,
		Example: `  ctxgather gather .
  ctxgather gather ./api ./web -e docs -e "*.snap" -o context.md
  ctxgather gather . --compress --signatures-only --report report.yaml
  ctxgather gather . --judge-cmd "my-llm --model small" --judge-optional`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			return runGather(cmd, a, o, args)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&o.excludes, "exclude", "e", nil, "Exclusion pattern (repeatable)")
	f.StringArrayVar(&o.junkDirs, "junk-dir", nil, "Extra directory name to drop like node_modules (repeatable)")
	f.StringVar(&o.ignoreFile, "ignore-file", "", "Global ignore file (default $"+envIgnoreFile+")")
	f.StringVar(&o.judgeCmd, "judge-cmd", "", "Command that suggests extra exclusions from the tree")
	f.BoolVar(&o.judgeOptional, "judge-optional", false, "Continue without extra exclusions when the judge fails")
	f.BoolVar(&o.compress, "compress", false, "Reduce file contents to fit a smaller budget")
	f.BoolVar(&o.signaturesOnly, "signatures-only", false, "With --compress, keep only imports and declarations in code")
	f.BoolVar(&o.stripComments, "strip-comments", defaults.StripComments, "With --compress, drop comments from code")
	f.BoolVar(&o.minimizeWhitespace, "minimize-whitespace", defaults.MinimizeWhitespace, "With --compress, collapse blank lines in code")
	f.IntVar(&o.maxFileLines, "max-file-lines", defaults.MaxFileLines, "With --compress, maximum lines kept per file")
	f.BoolVar(&o.allowTests, "allow-tests", false, "Keep test files and test directories")
	f.StringVar(&o.maxFileSize, "max-file-size", humanize.IBytes(reader.DefaultMaxFileSizeBytes), "Skip files larger than this")
	f.IntVar(&o.maxDepth, "max-depth", tree.DefaultMaxDepth, "Maximum directory depth")
	f.IntVar(&o.maxItems, "max-items", tree.DefaultMaxItems, "Maximum number of tree entries")
	f.BoolVar(&o.sortSize, "sort-size", false, "Sort the tree by size and annotate entries")
	f.BoolVar(&o.noCache, "no-cache", false, "Neither read nor write the result cache")
	f.StringVarP(&o.output, "output", "o", "", "Write markdown to this file instead of stdout")
	f.StringVar(&o.report, "report", "", "Write YAML diagnostics to this file")

	return cmd
}

func runGather(cmd *cobra.Command, a *app, o *gatherOptions, roots []string) error {
	logger := a.logger

	maxFileSize, err := humanize.ParseBytes(o.maxFileSize)
	if err != nil {
		return fmt.Errorf("invalid --max-file-size %q: %w", o.maxFileSize, err)
	}

	resolved, err := paths.ValidateRoots(roots)
	if err != nil {
		return err
	}

	patterns, err := o.loadPatterns(resolved, logger)
	if err != nil {
		return err
	}

	var store *cache.Store
	if !o.noCache {
		store, err = a.openCache()
		if err != nil {
			logger.Warn("Cache unavailable, continuing without it", zap.Error(err))
			store = nil
		}
	}

	opts := gather.Options{
		Patterns: patterns,
		Compress: o.compress,
		Reduce: reduce.Options{
			MaxFileLines:       o.maxFileLines,
			SignaturesOnly:     o.signaturesOnly,
			StripComments:      o.stripComments,
			MinimizeWhitespace: o.minimizeWhitespace,
		},
		AllowTestArtifacts: o.allowTests,
		MaxFileSizeBytes:   int64(maxFileSize),
		MaxDepth:           o.maxDepth,
		MaxItems:           o.maxItems,
		SortBySize:         o.sortSize,
		ExtraJunkDirs:      o.junkDirs,
	}

	judgeFailed := false
	if o.judgeCmd != "" {
		judge, err := o.judge(store, logger, &judgeFailed)
		if err != nil {
			return err
		}
		opts.Relevance = judge
		opts.RelevanceID = o.judgeCmd
	}

	runner := gather.NewRunner(store, logger)
	out, err := runner.Run(cmd.Context(), resolved, opts)
	if err != nil {
		return err
	}
	if judgeFailed {
		// A degraded run must not be served later as the judged result.
		if err := runner.Cache.Delete(out.CacheKey); err != nil {
			logger.Warn("Failed to drop degraded result from cache", zap.Error(err))
		}
	}

	if o.output != "" {
		if err := writeMarkdown(o.output, out.Result.Markdown, logger); err != nil {
			return err
		}
	} else if _, err := fmt.Fprint(cmd.OutOrStdout(), out.Result.Markdown); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}

	if o.report != "" {
		if err := writeReport(o.report, newReport(roots, out, judgeFailed), logger); err != nil {
			return err
		}
	}

	printSummary(cmd.ErrOrStderr(), out, o.output)
	return nil
}

// loadPatterns merges the global ignore file, each root's local ignore file and
// --exclude flags, in that order.
func (o *gatherOptions) loadPatterns(roots []string, logger *zap.Logger) ([]string, error) {
	var patterns []string

	global := o.ignoreFile
	if global == "" {
		global = os.Getenv(envIgnoreFile)
	}
	if global != "" {
		lines, err := ignore.LoadIgnoreFile(global)
		if err != nil {
			return nil, fmt.Errorf("failed to load ignore file: %w", err)
		}
		logger.Debug("Loaded global ignore file", zap.String("path", global), zap.Int("patterns", len(lines)))
		patterns = append(patterns, lines...)
	}

	for _, root := range roots {
		path := filepath.Join(root, localIgnoreFile)
		lines, err := ignore.LoadIgnoreFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load ignore file: %w", err)
		}
		if len(lines) > 0 {
			logger.Debug("Loaded local ignore file", zap.String("path", path), zap.Int("patterns", len(lines)))
		}
		patterns = append(patterns, lines...)
	}

	return append(patterns, ignore.ParseLines(o.excludes)...), nil
}

// judge wires the external judge command through the llm cache. With
// --judge-optional a failure is logged, recorded in failed and treated as no
// extra exclusions.
func (o *gatherOptions) judge(store *cache.Store, logger *zap.Logger, failed *bool) (gather.RelevanceFunc, error) {
	argv := strings.Fields(o.judgeCmd)
	if len(argv) == 0 {
		return nil, fmt.Errorf("invalid --judge-cmd %q", o.judgeCmd)
	}
	ask := relevance.Memoize(
		relevance.CommandAsk(argv[0], argv[1:]...),
		cache.NewNamespace[string](store, cache.NamespaceLLM),
		o.judgeCmd,
	)
	judge := relevance.FromAsk(ask)
	if !o.judgeOptional {
		return judge, nil
	}
	return func(ctx context.Context, treeText string) ([]string, error) {
		patterns, err := judge(ctx, treeText)
		if err != nil {
			logger.Warn("Judge failed, continuing without extra exclusions", zap.Error(err))
			*failed = true
			return nil, nil
		}
		return patterns, nil
	}, nil
}
