// Package gather sequences the pipeline: validate roots, render the pre-filtered
// tree, ask the relevance function for extra exclusions, render the final tree,
// read and optionally reduce the surviving files, and assemble markdown.
package gather

import (
	"context"
	"fmt"
	"time"

	"ctxgather/pkg/paths"
	"ctxgather/pkg/reader"
	"ctxgather/pkg/reduce"
	"ctxgather/pkg/tree"

	"go.uber.org/zap"
)

// RelevanceFunc receives the pre-filtered tree and returns extra exclusion patterns.
// It may block on network I/O; the pipeline waits for it.
type RelevanceFunc func(ctx context.Context, tree string) ([]string, error)

// Options configure one gather call.
type Options struct {
	Patterns           []string       // Manual exclusion patterns, always applied.
	Relevance          RelevanceFunc  // Optional relevance judgment.
	RelevanceID        string         // Identifies the relevance judgment in cache keys.
	Compress           bool           // Run the reducer.
	Reduce             reduce.Options // Reducer options, used when Compress is set.
	AllowTestArtifacts bool           // Keep test files and test directories.
	MaxFileSizeBytes   int64          // Per-file size budget; <= 0 means reader.DefaultMaxFileSizeBytes.
	MaxDepth           int            // Tree and walk depth; <= 0 means tree.DefaultMaxDepth.
	MaxItems           int            // Tree item cap; <= 0 means tree.DefaultMaxItems.
	SortBySize         bool           // Order tree entries by size.
	ExtraJunkDirs      []string       // Additional directory names to drop.
}

// withDefaults fills zero values so that cache keys do not depend on whether a
// default was spelled out.
func (o Options) withDefaults() Options {
	if o.MaxFileSizeBytes <= 0 {
		o.MaxFileSizeBytes = reader.DefaultMaxFileSizeBytes
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = tree.DefaultMaxDepth
	}
	if o.MaxItems <= 0 {
		o.MaxItems = tree.DefaultMaxItems
	}
	if o.Reduce.MaxFileLines <= 0 {
		o.Reduce.MaxFileLines = reduce.DefaultMaxFileLines
	}
	return o
}

// Timing records how long each stage took.
type Timing struct {
	Tree      time.Duration `json:"tree" yaml:"tree"`
	Relevance time.Duration `json:"relevance" yaml:"relevance"`
	Read      time.Duration `json:"read" yaml:"read"`
	Reduce    time.Duration `json:"reduce" yaml:"reduce"`
	Total     time.Duration `json:"total" yaml:"total"`
}

// Result is an immutable snapshot of one pipeline execution.
type Result struct {
	Markdown        string              `json:"markdown" yaml:"-"`
	InitialTree     string              `json:"initialTree" yaml:"-"`
	FinalTree       string              `json:"finalTree" yaml:"-"`
	FileCount       int                 `json:"fileCount" yaml:"fileCount"`
	TotalSizeBytes  int64               `json:"totalSizeBytes" yaml:"totalSizeBytes"`
	Files           []string            `json:"files" yaml:"files"`
	Skipped         []reader.SkipRecord `json:"skipped" yaml:"skipped"`
	AppliedPatterns []string            `json:"appliedPatterns" yaml:"appliedPatterns"`
	Compression     *reduce.Stats       `json:"compression,omitempty" yaml:"compression,omitempty"`
	Timing          Timing              `json:"timing" yaml:"timing"`
}

// Gather validates roots and runs the whole pipeline. Validation failures abort
// before any other I/O; relevance failures are returned to the caller wrapped.
func Gather(ctx context.Context, roots []string, opts Options, logger *zap.Logger) (Result, error) {
	resolved, err := paths.ValidateRoots(roots)
	if err != nil {
		return Result{}, err
	}
	return gatherResolved(ctx, resolved, opts.withDefaults(), logger)
}

func gatherResolved(ctx context.Context, roots []string, opts Options, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()
	logger.Info("Starting gather", zap.Strings("roots", roots), zap.Strings("patterns", opts.Patterns))

	var res Result
	treeOpts := tree.Options{
		Patterns:           opts.Patterns,
		MaxDepth:           opts.MaxDepth,
		MaxItems:           opts.MaxItems,
		SortBySize:         opts.SortBySize,
		AllowTestArtifacts: opts.AllowTestArtifacts,
		ExtraJunkDirs:      opts.ExtraJunkDirs,
	}

	stageStart := time.Now()
	res.InitialTree = tree.Render(roots, treeOpts, logger)
	res.Timing.Tree = time.Since(stageStart)

	applied := dedupe(opts.Patterns)
	if opts.Relevance != nil {
		stageStart = time.Now()
		extra, err := opts.Relevance(ctx, res.InitialTree)
		res.Timing.Relevance = time.Since(stageStart)
		if err != nil {
			logger.Error("Relevance judgment failed", zap.Error(err))
			return Result{}, fmt.Errorf("relevance judgment failed: %w", err)
		}
		logger.Debug("Relevance judgment returned patterns", zap.Strings("patterns", extra))
		applied = dedupe(append(applied, extra...))
	}
	res.AppliedPatterns = applied

	if opts.Relevance != nil {
		stageStart = time.Now()
		treeOpts.Patterns = applied
		res.FinalTree = tree.Render(roots, treeOpts, logger)
		res.Timing.Tree += time.Since(stageStart)
	} else {
		res.FinalTree = res.InitialTree
	}

	stageStart = time.Now()
	read := reader.Read(roots, reader.Options{
		Patterns:           applied,
		MaxFileSizeBytes:   opts.MaxFileSizeBytes,
		MaxDepth:           opts.MaxDepth,
		AllowTestArtifacts: opts.AllowTestArtifacts,
		ExtraJunkDirs:      opts.ExtraJunkDirs,
	}, logger)
	res.Timing.Read = time.Since(stageStart)

	files := read.Files
	if opts.Compress {
		stageStart = time.Now()
		reduced, stats := reduce.Reduce(files, opts.Reduce)
		res.Timing.Reduce = time.Since(stageStart)
		files = reduced
		res.Compression = &stats
		logger.Debug("Reduced file contents",
			zap.Int64("originalBytes", stats.OriginalBytes),
			zap.Int64("reducedBytes", stats.ReducedBytes),
			zap.Float64("ratio", stats.Ratio))
	}

	res.FileCount = len(files)
	res.TotalSizeBytes = read.TotalSize()
	res.Skipped = read.Skipped
	res.Files = make([]string, 0, len(files))
	for _, f := range files {
		res.Files = append(res.Files, f.RelativePath)
	}
	res.Markdown = RenderMarkdown(res.FinalTree, files)
	res.Timing.Total = time.Since(start)

	logger.Info("Gather completed",
		zap.Int("files", res.FileCount),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int64("totalSizeBytes", res.TotalSizeBytes),
		zap.Duration("elapsed", res.Timing.Total))
	return res, nil
}

// dedupe drops repeated patterns, keeping first occurrences in order.
func dedupe(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
