package reader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func paths(files []FileEntry) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.RelativePath)
	}
	return out
}

func TestReadSkipsAndRecords(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/index.ts":              "export const x = 1\n",
		"node_modules/pkg/index.js": "module.exports = {}\n",
		"dist/app.js":               "console.log(1)\n",
		"app.test.ts":               "test('x', () => {})\n",
	})

	res := Read([]string{root}, Options{Patterns: []string{"dist"}}, nil)

	require.Len(t, res.Files, 1)
	assert.Equal(t, "src/index.ts", res.Files[0].RelativePath)
	assert.Equal(t, CategoryTypeScript, res.Files[0].Category)
	assert.Equal(t, "export const x = 1\n", res.Files[0].Content)
	assert.Equal(t, int64(len("export const x = 1\n")), res.TotalSize())

	assert.Equal(t, []SkipRecord{
		{Path: "dist", Reason: SkipExcluded},
		{Path: "node_modules", Reason: SkipPreFiltered},
		{Path: "app.test.ts", Reason: SkipPreFiltered},
	}, res.Skipped)
}

func TestReadAllowTestArtifacts(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"app.test.ts": "x", "app.ts": "y"})

	res := Read([]string{root}, Options{AllowTestArtifacts: true}, nil)
	assert.Equal(t, []string{"app.test.ts", "app.ts"}, paths(res.Files))
	assert.Empty(t, res.Skipped)
}

func TestReadSizeLimit(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"big.txt":   strings.Repeat("x", 2048),
		"small.txt": "ok",
	})

	res := Read([]string{root}, Options{MaxFileSizeBytes: 1024}, nil)
	assert.Equal(t, []string{"small.txt"}, paths(res.Files))
	assert.Equal(t, []SkipRecord{{Path: "big.txt", Reason: SkipSizeExceeded}}, res.Skipped)
}

func TestReadBinaryContentIsReadError(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"blob.dat": "ab\x00cd"})

	res := Read([]string{root}, Options{}, nil)
	assert.Empty(t, res.Files)
	assert.Equal(t, []SkipRecord{{Path: "blob.dat", Reason: SkipReadError}}, res.Skipped)
}

func TestReadUnreadableFileDoesNotAbort(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "a", "b.txt": "b"})
	require.NoError(t, os.Chmod(filepath.Join(root, "a.txt"), 0o000))
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(root, "a.txt"), 0o644) })

	res := Read([]string{root}, Options{}, nil)
	assert.Equal(t, []string{"b.txt"}, paths(res.Files))
	assert.Equal(t, []SkipRecord{{Path: "a.txt", Reason: SkipReadError}}, res.Skipped)
}

func TestReadDepthLimit(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"top.go": "a", "a/mid.go": "b", "a/b/deep.go": "c"})

	res := Read([]string{root}, Options{MaxDepth: 2}, nil)
	assert.Equal(t, []string{"a/mid.go", "top.go"}, paths(res.Files))
}

func TestReadIsMonotonicInPatterns(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/a.ts": "a", "src/b.md": "b", "lib/c.go": "c", "docs/d.md": "d",
	})

	small := paths(Read([]string{root}, Options{Patterns: []string{"lib"}}, nil).Files)
	large := paths(Read([]string{root}, Options{Patterns: []string{"lib", "*.md"}}, nil).Files)

	assert.Subset(t, small, large)
	assert.Less(t, len(large), len(small))
}

func TestReadMultipleRootsPrefixesPaths(t *testing.T) {
	base := t.TempDir()
	a := filepath.Join(base, "alpha")
	b := filepath.Join(base, "beta")
	writeFiles(t, a, map[string]string{"main.go": "package main"})
	writeFiles(t, b, map[string]string{"main.go": "package main"})

	res := Read([]string{a, b}, Options{}, nil)
	assert.Equal(t, []string{"alpha/main.go", "beta/main.go"}, paths(res.Files))
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, CategoryGo, CategoryFor("main.go"))
	assert.Equal(t, CategoryTypeScript, CategoryFor("src/App.TSX"))
	assert.Equal(t, CategoryMarkdown, CategoryFor("README.md"))
	assert.Equal(t, CategoryDockerfile, CategoryFor("Dockerfile"))
	assert.Equal(t, CategoryText, CategoryFor("LICENSE"))

	assert.True(t, CategoryPython.IsCode())
	assert.False(t, CategoryJSON.IsCode())
	assert.Equal(t, "", CategoryText.FenceTag())
	assert.Equal(t, "go", CategoryGo.FenceTag())
}

func TestReadUnreadableDirectoryIsSkippedSilently(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"locked/secret.go": "package locked", "open.go": "package open"})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	res := Read([]string{root}, Options{}, nil)
	assert.Equal(t, []string{"open.go"}, paths(res.Files))
	assert.Empty(t, res.Skipped)
}

func TestReadDisambiguatesRootsWithSameBase(t *testing.T) {
	base := t.TempDir()
	first := filepath.Join(base, "a", "src")
	second := filepath.Join(base, "b", "src")
	writeFiles(t, first, map[string]string{"main.go": "package a"})
	writeFiles(t, second, map[string]string{"main.go": "package b"})

	res := Read([]string{first, second}, Options{}, nil)
	assert.Equal(t, []string{"src/main.go", "src~2/main.go"}, paths(res.Files))
}
