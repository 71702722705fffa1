// Package reduce shrinks file contents with line-oriented heuristics so a
// gathered slice fits a reasoning service's budget.
//
// Comment stripping is best-effort: string literals are not tracked, so a "//"
// or "/*" inside a string is treated as the start of a comment.
package reduce

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"ctxgather/pkg/reader"
)

const DefaultMaxFileLines = 200

// ElisionMarker replaces a run of omitted lines.
const ElisionMarker = "..."

// Options select the transforms applied to each file.
type Options struct {
	MaxFileLines       int  `json:"maxFileLines"`       // Line budget per file; <= 0 means DefaultMaxFileLines.
	SignaturesOnly     bool `json:"signaturesOnly"`     // Keep only import/export/declaration lines of code.
	StripComments      bool `json:"stripComments"`      // Drop line and block comments from code.
	MinimizeWhitespace bool `json:"minimizeWhitespace"` // Collapse runs of blank lines in code.
}

// DefaultOptions returns the reducer defaults.
func DefaultOptions() Options {
	return Options{
		MaxFileLines:       DefaultMaxFileLines,
		StripComments:      true,
		MinimizeWhitespace: true,
	}
}

// Stats aggregates sizes before and after reduction.
type Stats struct {
	OriginalBytes int64   `json:"originalBytes" yaml:"originalBytes"`
	ReducedBytes  int64   `json:"reducedBytes" yaml:"reducedBytes"`
	Ratio         float64 `json:"ratio" yaml:"ratio"` // Percentage removed, within [0, 100].
}

// Ratio returns the percentage of bytes removed, 0 when before is 0.
func Ratio(before, after int64) float64 {
	if before <= 0 {
		return 0
	}
	ratio := (1 - float64(after)/float64(before)) * 100
	return min(max(ratio, 0), 100)
}

// Reduce transforms every file independently and leaves the input slice untouched.
func Reduce(files []reader.FileEntry, opts Options) ([]reader.FileEntry, Stats) {
	if opts.MaxFileLines <= 0 {
		opts.MaxFileLines = DefaultMaxFileLines
	}

	out := make([]reader.FileEntry, len(files))
	var stats Stats
	for i, f := range files {
		stats.OriginalBytes += int64(len(f.Content))
		f.Content = reduceContent(f.Content, f.Category, opts)
		stats.ReducedBytes += int64(len(f.Content))
		out[i] = f
	}
	stats.Ratio = Ratio(stats.OriginalBytes, stats.ReducedBytes)
	return out, stats
}

// reduceContent works on the lines of content. A final newline terminates the
// last line rather than starting an empty one, and is restored on the result.
func reduceContent(content string, category reader.Category, opts Options) string {
	if content == "" {
		return content
	}
	body, terminated := strings.CutSuffix(content, "\n")
	out := reduceLines(strings.Split(body, "\n"), category, opts)
	if terminated && out != "" {
		out += "\n"
	}
	return out
}

func reduceLines(lines []string, category reader.Category, opts Options) string {
	if !category.IsCode() {
		return truncate(lines, opts.MaxFileLines)
	}
	if opts.SignaturesOnly {
		return strings.Join(signatures(lines), "\n")
	}

	if opts.StripComments {
		lines = stripComments(lines, hashComments[category])
	}
	if opts.MinimizeWhitespace {
		lines = collapseBlankLines(lines)
	}
	return retain(lines, opts.MaxFileLines)
}

func truncate(lines []string, budget int) string {
	if len(lines) <= budget {
		return strings.Join(lines, "\n")
	}
	kept := append([]string(nil), lines[:budget]...)
	kept = append(kept, omittedLine(len(lines)-budget))
	return strings.Join(kept, "\n")
}

func omittedLine(n int) string {
	return fmt.Sprintf("%s (%d more lines omitted)", ElisionMarker, n)
}

// importantLine matches lines that open an import, export, type or function declaration.
var importantLine = regexp.MustCompile(`^\s*(` +
	`import\b|from\s+\S+\s+import\b|package\b|using\b|require\b|#include\b|use\s|mod\s|` +
	`export\b|module\.exports|` +
	`(pub(\([a-z]+\))?\s+)?(async\s+)?(fn|func|function|def)\b|` +
	`(public|private|protected|internal|static|abstract|final|sealed)\b|` +
	`(type|interface|class|struct|enum|trait|impl|record|object)\b|` +
	`(const|let|var)\s+\w+\s*=\s*(async\s*)?(\([^)]*\)|\w+)\s*=>` +
	`)`)

func isImportant(line string) bool {
	return importantLine.MatchString(line)
}

func signatures(lines []string) []string {
	var kept []string
	for _, l := range lines {
		if isImportant(l) {
			kept = append(kept, l)
		}
	}
	return kept
}

// retain keeps at most budget lines: every important line plus one line of trailing
// context, then the top of the file. Gaps become elision markers.
func retain(lines []string, budget int) string {
	if len(lines) <= budget {
		return strings.Join(lines, "\n")
	}

	selected := make(map[int]bool, budget)
	add := func(i int) {
		if len(selected) < budget && i < len(lines) {
			selected[i] = true
		}
	}
	for i, l := range lines {
		if len(selected) >= budget {
			break
		}
		if isImportant(l) {
			add(i)
			add(i + 1)
		}
	}
	for i := 0; i < len(lines) && len(selected) < budget; i++ {
		add(i)
	}

	indices := make([]int, 0, len(selected))
	for i := range selected {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	out := make([]string, 0, len(indices)+8)
	prev := -1
	for _, i := range indices {
		if i > prev+1 {
			out = append(out, ElisionMarker)
		}
		out = append(out, lines[i])
		prev = i
	}
	if omitted := len(lines) - len(indices); omitted > 0 {
		out = append(out, omittedLine(omitted))
	}
	return strings.Join(out, "\n")
}

func collapseBlankLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		isBlank := strings.TrimSpace(l) == ""
		if isBlank && blank {
			continue
		}
		blank = isBlank
		out = append(out, l)
	}
	return out
}
