// File: pkg/tree/tree.go
package tree

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"ctxgather/pkg/ignore"
	"ctxgather/pkg/prefilter"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const (
	DefaultMaxDepth = 6
	DefaultMaxItems = 1000
)

// Options control which entries are rendered and in what order.
type Options struct {
	Patterns           []string // Exclusion patterns (manual, or manual plus relevance).
	MaxDepth           int      // Levels below each root to render; <= 0 means DefaultMaxDepth.
	MaxItems           int      // Entries rendered before truncating; <= 0 means DefaultMaxItems.
	SortBySize         bool     // Order by descending size and annotate sizes.
	AllowTestArtifacts bool     // Keep test files and test directories.
	ExtraJunkDirs      []string // Additional directory names to drop.
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxItems <= 0 {
		o.MaxItems = DefaultMaxItems
	}
	return o
}

type entry struct {
	name  string
	abs   string
	rel   string
	isDir bool
	size  int64
}

type renderer struct {
	opts      Options
	logger    *zap.Logger
	out       strings.Builder
	items     int
	truncated bool
	dirSizes  map[sizeKey]int64
}

type sizeKey struct {
	dir   string
	depth int
}

// Render produces a textual tree of every root, skipping junk entries and
// anything matched by the exclusion patterns. Output is deterministic.
func Render(roots []string, opts Options, logger *zap.Logger) string {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &renderer{
		opts:     opts.withDefaults(),
		logger:   logger,
		dirSizes: map[sizeKey]int64{},
	}

	for i, root := range RootNames(roots) {
		if r.truncated {
			break
		}
		r.out.WriteString(root + "/")
		if r.opts.SortBySize {
			r.out.WriteString(" (" + humanize.Bytes(uint64(r.dirSize(roots[i], "", r.opts.MaxDepth))) + ")")
		}
		r.out.WriteString("\n")
		r.renderDir(roots[i], "", "", r.opts.MaxDepth)
	}
	return r.out.String()
}

func (r *renderer) renderDir(dir, rel, prefix string, depth int) {
	if depth <= 0 {
		return
	}
	entries := r.list(dir, rel, depth)

	for i, e := range entries {
		if r.truncated {
			return
		}
		if r.items >= r.opts.MaxItems {
			r.out.WriteString(fmt.Sprintf("%s… (truncated at %d items)\n", prefix, r.opts.MaxItems))
			r.truncated = true
			return
		}

		connector := "├── "
		extension := "│   "
		if i == len(entries)-1 {
			connector = "└── "
			extension = "    "
		}

		name := e.name
		if e.isDir {
			name += "/"
		}
		if r.opts.SortBySize {
			name += " (" + humanize.Bytes(uint64(e.size)) + ")"
		}
		r.out.WriteString(prefix + connector + name + "\n")
		r.items++

		if e.isDir {
			r.renderDir(e.abs, e.rel, prefix+extension, depth-1)
		}
	}
}

// list returns the surviving children of dir, sorted. Unreadable directories yield
// nothing. depth is the level budget of dir itself; sizes only count what fits in it.
func (r *renderer) list(dir, rel string, depth int) []entry {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		r.logger.Debug("Skipping unreadable directory in tree", zap.String("directory", dir), zap.Error(err))
		return nil
	}

	entries := make([]entry, 0, len(dirEntries))
	for _, d := range dirEntries {
		e := entry{
			name: d.Name(),
			abs:  filepath.Join(dir, d.Name()),
			rel:  path.Join(rel, d.Name()),
		}
		e.isDir = IsDir(e.abs, d)

		if e.isDir {
			if prefilter.IsJunkDirectory(e.name, r.opts.ExtraJunkDirs, r.opts.AllowTestArtifacts) {
				continue
			}
		} else if prefilter.IsJunkFile(e.name, r.opts.AllowTestArtifacts) {
			continue
		}
		if ignore.Matches(e.rel, r.opts.Patterns) {
			continue
		}

		if r.opts.SortBySize {
			if e.isDir {
				e.size = r.dirSize(e.abs, e.rel, depth-1)
			} else if info, err := os.Stat(e.abs); err == nil {
				e.size = info.Size()
			}
		}
		entries = append(entries, e)
	}

	sortBySize := r.opts.SortBySize
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if sortBySize && a.size != b.size {
			return a.size > b.size
		}
		return Less(a.name, a.isDir, b.name, b.isDir)
	})
	return entries
}

// dirSize sums the sizes of the surviving files within depth levels below dir.
func (r *renderer) dirSize(dir, rel string, depth int) int64 {
	if depth <= 0 {
		return 0
	}
	key := sizeKey{dir: dir, depth: depth}
	if size, ok := r.dirSizes[key]; ok {
		return size
	}
	var total int64
	for _, e := range r.list(dir, rel, depth) {
		total += e.size
	}
	r.dirSizes[key] = total
	return total
}

// RootNames labels each root by its base name. Repeated base names get a
// numeric suffix ("src", "src~2") so labels stay unique.
func RootNames(roots []string) []string {
	names := make([]string, len(roots))
	used := make(map[string]bool, len(roots))
	for i, root := range roots {
		base := filepath.Base(root)
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s~%d", base, n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// Less orders directories before files, then names case-insensitively.
func Less(aName string, aDir bool, bName string, bDir bool) bool {
	if aDir != bDir {
		return aDir
	}
	la, lb := strings.ToLower(aName), strings.ToLower(bName)
	if la != lb {
		return la < lb
	}
	return aName < bName
}

// IsDir reports whether the entry is a directory, following symbolic links.
func IsDir(absPath string, d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(absPath)
		return err == nil && info.IsDir()
	}
	return d.IsDir()
}
