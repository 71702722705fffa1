// Package ignore matches relative paths against exclusion patterns.
//
// A pattern is either an exact name, matched against any path segment, or a
// trailing-extension glob of the form "*.ext". Adding patterns never shrinks the
// set of excluded paths.
package ignore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Matches reports whether relPath is excluded by any of the patterns.
func Matches(relPath string, patterns []string) bool {
	_, ok := firstMatch(relPath, patterns)
	return ok
}

// Matcher binds a pattern set to a logger for repeated lookups.
type Matcher struct {
	Patterns []string    // Patterns in the order they were added.
	logger   *zap.Logger // Logger for debug information.
}

// NewMatcher initializes a Matcher with the given patterns.
func NewMatcher(patterns []string, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		Patterns: append([]string(nil), patterns...),
		logger:   logger,
	}
}

// CompileIgnoreLines adds pattern lines, skipping blanks and comments.
func (m *Matcher) CompileIgnoreLines(lines ...string) {
	m.Patterns = append(m.Patterns, ParseLines(lines)...)
}

// MatchesPath reports whether relPath is excluded.
func (m *Matcher) MatchesPath(relPath string) bool {
	_, ok := m.Match(relPath)
	return ok
}

// Match returns the first pattern excluding relPath.
func (m *Matcher) Match(relPath string) (string, bool) {
	if m == nil {
		return "", false
	}
	pattern, ok := firstMatch(relPath, m.Patterns)
	if ok {
		m.logger.Debug("Path matches pattern", zap.String("path", relPath), zap.String("pattern", pattern))
	}
	return pattern, ok
}

// LoadIgnoreFile reads patterns from a file, one per line. A missing file yields no patterns.
func LoadIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return ParseLines(strings.Split(string(content), "\n")), nil
}

// ParseLines trims each line and drops empty lines and '#' comments.
func ParseLines(lines []string) []string {
	var patterns []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		patterns = append(patterns, trimmed)
	}
	return patterns
}

func firstMatch(relPath string, patterns []string) (string, bool) {
	if len(patterns) == 0 {
		return "", false
	}
	normalized := strings.Trim(filepath.ToSlash(relPath), "/")
	segments := strings.Split(normalized, "/")
	filename := segments[len(segments)-1]
	lowerFilename := strings.ToLower(filename)

	for _, pattern := range patterns {
		if matchOne(pattern, segments, filename, lowerFilename) {
			return pattern, true
		}
	}
	return "", false
}

func matchOne(pattern string, segments []string, filename, lowerFilename string) bool {
	if pattern == "" {
		return false
	}
	if strings.HasPrefix(pattern, "*.") {
		suffix := strings.ToLower(pattern[1:])
		return strings.HasSuffix(lowerFilename, suffix)
	}
	if strings.Contains(pattern, "*") {
		// Other glob shapes are not supported and exclude nothing.
		return false
	}
	if filename == pattern {
		return true
	}
	for _, segment := range segments {
		if strings.EqualFold(segment, pattern) {
			return true
		}
	}
	return false
}
