// Package reader walks validated roots and loads the text of every file that
// survives the pre-filter and the exclusion patterns.
package reader

import (
	"os"
	"path"
	"path/filepath"
	"sort"

	"ctxgather/pkg/ignore"
	"ctxgather/pkg/prefilter"
	"ctxgather/pkg/tree"

	"go.uber.org/zap"
)

const (
	DefaultMaxFileSizeBytes = 64 * 1024
	DefaultMaxDepth         = tree.DefaultMaxDepth
)

// SkipReason explains why an entry was left out of the result.
type SkipReason string

const (
	SkipPreFiltered  SkipReason = "pre-filtered"
	SkipExcluded     SkipReason = "ai-excluded"
	SkipSizeExceeded SkipReason = "size-exceeded"
	SkipStatError    SkipReason = "stat-error"
	SkipReadError    SkipReason = "read-error"
)

// SkipRecord is one entry of the audit trail of a read.
type SkipRecord struct {
	Path   string     `json:"path" yaml:"path"`
	Reason SkipReason `json:"reason" yaml:"reason"`
}

// FileEntry is a file that survived every exclusion layer.
type FileEntry struct {
	RelativePath string   `json:"relativePath"`
	AbsolutePath string   `json:"absolutePath"`
	Content      string   `json:"content"`
	SizeBytes    int64    `json:"sizeBytes"`
	Category     Category `json:"category"`
}

// Options bound the walk.
type Options struct {
	Patterns           []string // Exclusion patterns, manual plus relevance.
	MaxFileSizeBytes   int64    // Larger files are skipped; <= 0 means DefaultMaxFileSizeBytes.
	MaxDepth           int      // Levels below each root to walk; <= 0 means DefaultMaxDepth.
	AllowTestArtifacts bool     // Keep test files and test directories.
	ExtraJunkDirs      []string // Additional directory names to drop.
}

// Result holds the surviving files in walk order and every skip.
type Result struct {
	Files   []FileEntry
	Skipped []SkipRecord
}

// TotalSize sums the on-disk size of every surviving file.
func (r Result) TotalSize() int64 {
	var total int64
	for _, f := range r.Files {
		total += f.SizeBytes
	}
	return total
}

type walker struct {
	opts   Options
	logger *zap.Logger
	result Result
}

// Read walks each root in order. A bad file never aborts the walk: it is recorded
// in Skipped and traversal continues. Unreadable directories are skipped silently.
func Read(roots []string, opts Options, logger *zap.Logger) Result {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxFileSizeBytes <= 0 {
		opts.MaxFileSizeBytes = DefaultMaxFileSizeBytes
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	w := &walker{opts: opts, logger: logger}
	logger.Debug("Starting file collection", zap.Int("rootCount", len(roots)), zap.Int64("maxFileSizeBytes", opts.MaxFileSizeBytes))
	names := tree.RootNames(roots)
	for i, root := range roots {
		display := ""
		if len(roots) > 1 {
			display = names[i]
		}
		w.walkDir(root, "", display, opts.MaxDepth)
	}
	logger.Debug("Completed file collection",
		zap.Int("files", len(w.result.Files)),
		zap.Int("skipped", len(w.result.Skipped)))
	return w.result
}

// walkDir visits dir. rel is relative to the current root and is what patterns
// are matched against; display is the path reported to callers.
func (w *walker) walkDir(dir, rel, display string, depth int) {
	if depth <= 0 {
		return
	}
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.Debug("Skipping unreadable directory", zap.String("directory", dir), zap.Error(err))
		return
	}

	type child struct {
		name  string
		isDir bool
	}
	children := make([]child, 0, len(dirEntries))
	for _, d := range dirEntries {
		children = append(children, child{name: d.Name(), isDir: tree.IsDir(filepath.Join(dir, d.Name()), d)})
	}
	sort.SliceStable(children, func(i, j int) bool {
		return tree.Less(children[i].name, children[i].isDir, children[j].name, children[j].isDir)
	})

	for _, c := range children {
		absPath := filepath.Join(dir, c.name)
		childRel := path.Join(rel, c.name)
		childDisplay := path.Join(display, c.name)

		if c.isDir {
			if prefilter.IsJunkDirectory(c.name, w.opts.ExtraJunkDirs, w.opts.AllowTestArtifacts) {
				w.skip(childDisplay, SkipPreFiltered)
				continue
			}
			if ignore.Matches(childRel, w.opts.Patterns) {
				w.skip(childDisplay, SkipExcluded)
				continue
			}
			w.walkDir(absPath, childRel, childDisplay, depth-1)
			continue
		}

		w.readFile(absPath, childRel, childDisplay, c.name)
	}
}

func (w *walker) readFile(absPath, rel, display, name string) {
	if prefilter.IsJunkFile(name, w.opts.AllowTestArtifacts) {
		w.skip(display, SkipPreFiltered)
		return
	}

	info, err := os.Stat(absPath)
	if err != nil {
		w.logger.Debug("Failed to stat file", zap.String("filePath", absPath), zap.Error(err))
		w.skip(display, SkipStatError)
		return
	}
	if info.Size() > w.opts.MaxFileSizeBytes {
		w.logger.Debug("Skipping file due to size limit",
			zap.String("filePath", absPath),
			zap.Int64("sizeBytes", info.Size()),
			zap.Int64("maxSizeBytes", w.opts.MaxFileSizeBytes))
		w.skip(display, SkipSizeExceeded)
		return
	}
	if ignore.Matches(rel, w.opts.Patterns) {
		w.skip(display, SkipExcluded)
		return
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		w.logger.Debug("Failed to read file", zap.String("filePath", absPath), zap.Error(err))
		w.skip(display, SkipReadError)
		return
	}
	if prefilter.IsBinaryContent(data) {
		w.logger.Debug("File is binary", zap.String("filePath", absPath))
		w.skip(display, SkipReadError)
		return
	}

	w.result.Files = append(w.result.Files, FileEntry{
		RelativePath: display,
		AbsolutePath: absPath,
		Content:      string(data),
		SizeBytes:    info.Size(),
		Category:     CategoryFor(name),
	})
	w.logger.Debug("Added file", zap.String("filePath", display), zap.Int64("sizeBytes", info.Size()))
}

func (w *walker) skip(p string, reason SkipReason) {
	w.logger.Debug("Skipping entry", zap.String("path", p), zap.String("reason", string(reason)))
	w.result.Skipped = append(w.result.Skipped, SkipRecord{Path: p, Reason: reason})
}
