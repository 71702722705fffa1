package gather

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ctxgather/pkg/cache"
	"ctxgather/pkg/paths"
	"ctxgather/pkg/reader"
	"ctxgather/pkg/reduce"

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

func scenarioTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "proj")
	writeFiles(t, root, map[string]string{
		"src/index.ts":              "export const answer = 42\n",
		"node_modules/pkg/index.js": "module.exports = 1\n",
		"dist/app.js":               "console.log('bundle')\n",
		"app.test.ts":               "test('x', () => {})\n",
	})
	return root
}

func TestGatherScenarioManualPattern(t *testing.T) {
	root := scenarioTree(t)

	res, err := Gather(context.Background(), []string{root}, Options{Patterns: []string{"dist"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.FileCount)
	assert.Equal(t, []string{"src/index.ts"}, res.Files)
	assert.Contains(t, res.Markdown, "export const answer = 42")
	assert.NotContains(t, res.Markdown, "bundle")
	assert.NotContains(t, res.Markdown, "module.exports")
	assert.Len(t, res.Skipped, 3)
	assert.ElementsMatch(t, []reader.SkipRecord{
		{Path: "dist", Reason: reader.SkipExcluded},
		{Path: "node_modules", Reason: reader.SkipPreFiltered},
		{Path: "app.test.ts", Reason: reader.SkipPreFiltered},
	}, res.Skipped)
	assert.Equal(t, []string{"dist"}, res.AppliedPatterns)
	assert.Nil(t, res.Compression)
}

func TestGatherAllowTestArtifacts(t *testing.T) {
	root := scenarioTree(t)

	res, err := Gather(context.Background(), []string{root}, Options{Patterns: []string{"dist"}, AllowTestArtifacts: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FileCount)
	assert.Contains(t, res.Files, "app.test.ts")
}

func TestGatherRelevanceSeparatesTrees(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"widget.test.ts": "it('works')\n",
		"widget.ts":      "export class Widget {}\n",
	})

	var seenTree string
	relevance := func(_ context.Context, tree string) ([]string, error) {
		seenTree = tree
		return []string{"*.test.ts"}, nil
	}
	res, err := Gather(context.Background(), []string{root}, Options{
		AllowTestArtifacts: true,
		Relevance:          relevance,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, res.InitialTree, seenTree)
	assert.Contains(t, res.InitialTree, "widget.test.ts")
	assert.Contains(t, res.InitialTree, "widget.ts")
	assert.NotContains(t, res.FinalTree, "widget.test.ts")
	assert.Contains(t, res.FinalTree, "widget.ts")
	assert.Equal(t, []string{"widget.ts"}, res.Files)
	assert.Equal(t, []reader.SkipRecord{{Path: "widget.test.ts", Reason: reader.SkipExcluded}}, res.Skipped)
	assert.Equal(t, []string{"*.test.ts"}, res.AppliedPatterns)
}

func TestGatherRelevanceErrorPropagates(t *testing.T) {
	root := scenarioTree(t)
	boom := errors.New("model unavailable")

	_, err := Gather(context.Background(), []string{root}, Options{
		Relevance: func(context.Context, string) ([]string, error) { return nil, boom },
	}, nil)
	assert.ErrorIs(t, err, boom)
}

func TestGatherGarbagePatternsExcludeNothing(t *testing.T) {
	root := scenarioTree(t)

	res, err := Gather(context.Background(), []string{root}, Options{
		Relevance: func(context.Context, string) ([]string, error) {
			return []string{"no such thing", "**/*.weird", ""}, nil
		},
	}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dist/app.js", "src/index.ts"}, res.Files)
}

func TestGatherInvalidRootAborts(t *testing.T) {
	called := false
	_, err := Gather(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, Options{
		Relevance: func(context.Context, string) ([]string, error) { called = true; return nil, nil },
	}, nil)
	assert.ErrorIs(t, err, paths.ErrPathNotFound)
	assert.False(t, called)
}

func TestGatherCompress(t *testing.T) {
	root := t.TempDir()
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, "// filler comment line")
		lines = append(lines, "x := 1")
	}
	writeFiles(t, root, map[string]string{"big.go": "package big\n" + strings.Join(lines, "\n")})

	res, err := Gather(context.Background(), []string{root}, Options{
		Compress: true,
		Reduce:   reduce.Options{MaxFileLines: 10, StripComments: true},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Compression)
	assert.Greater(t, res.Compression.Ratio, float64(0))
	assert.LessOrEqual(t, res.Compression.Ratio, float64(100))
	assert.NotContains(t, res.Markdown, "filler comment")
	assert.Contains(t, res.Markdown, "more lines omitted")
}

func TestRenderMarkdownFormat(t *testing.T) {
	md := RenderMarkdown("proj/\n└── main.go\n", []reader.FileEntry{
		{RelativePath: "main.go", Content: "package main", Category: reader.CategoryGo},
		{RelativePath: "notes", Content: "has ``` inside\n", Category: reader.CategoryText},
	})
	want := "# Project Structure\n\n" +
		"```\nproj/\n└── main.go\n```\n" +
		"\n## main.go\n\n```go\npackage main\n```\n" +
		"\n## notes\n\n````\nhas ``` inside\n````\n"
	assert.Equal(t, want, md)
}

func newCachedRunner(t *testing.T) (*Runner, *cache.Store) {
	t.Helper()
	store, err := cache.New(cache.Config{Dir: t.TempDir(), TTL: time.Hour}, nil)
	require.NoError(t, err)
	return NewRunner(store, nil), store
}

func TestRunnerServesFromCache(t *testing.T) {
	root := scenarioTree(t)
	runner, _ := newCachedRunner(t)
	ctx := context.Background()

	first, err := runner.Run(ctx, []string{root}, Options{Patterns: []string{"dist"}})
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.NotEmpty(t, first.CacheKey)

	second, err := runner.Run(ctx, []string{root}, Options{Patterns: []string{"dist"}})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.CacheKey, second.CacheKey)
	assert.Equal(t, first.Result, second.Result)
}

func TestRunnerDoesNotCacheFailures(t *testing.T) {
	root := scenarioTree(t)
	runner, store := newCachedRunner(t)
	calls := 0
	opts := Options{
		RelevanceID: "flaky",
		Relevance: func(context.Context, string) ([]string, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("transient")
			}
			return nil, nil
		},
	}

	_, err := runner.Run(context.Background(), []string{root}, opts)
	require.Error(t, err)
	st, err := store.Stats(cache.NamespaceContext)
	require.NoError(t, err)
	assert.Zero(t, st.Entries)

	out, err := runner.Run(context.Background(), []string{root}, opts)
	require.NoError(t, err)
	assert.False(t, out.CacheHit)
	assert.Equal(t, 2, calls)
}

func TestRunnerWithoutStore(t *testing.T) {
	root := scenarioTree(t)
	runner := NewRunner(nil, nil)

	for i := 0; i < 2; i++ {
		out, err := runner.Run(context.Background(), []string{root}, Options{})
		require.NoError(t, err)
		assert.False(t, out.CacheHit)
	}
}

func TestCacheKeyNormalization(t *testing.T) {
	base := CacheKey([]string{"/a", "/b"}, Options{Patterns: []string{"x", "y"}})

	assert.Equal(t, base, CacheKey([]string{"/b", "/a"}, Options{Patterns: []string{"y", "x"}}))
	assert.Equal(t, base, CacheKey([]string{"/a", "/b"}, Options{
		Patterns:         []string{"x", "y"},
		MaxDepth:         6,
		MaxItems:         1000,
		MaxFileSizeBytes: 64 * 1024,
	}), "spelled-out defaults hash like zero values")

	variants := []Options{
		{Patterns: []string{"x"}},
		{Patterns: []string{"x", "y"}, Compress: true},
		{Patterns: []string{"x", "y"}, AllowTestArtifacts: true},
		{Patterns: []string{"x", "y"}, MaxDepth: 3},
		{Patterns: []string{"x", "y"}, MaxItems: 5},
		{Patterns: []string{"x", "y"}, MaxFileSizeBytes: 1},
		{Patterns: []string{"x", "y"}, SortBySize: true},
		{Patterns: []string{"x", "y"}, RelevanceID: "judge"},
		{Patterns: []string{"x", "y"}, Reduce: reduce.Options{SignaturesOnly: true}},
		{Patterns: []string{"x", "y"}, ExtraJunkDirs: []string{"gen"}},
		{Patterns: []string{"x", "y"}, Relevance: func(context.Context, string) ([]string, error) { return nil, nil }},
	}
	seen := map[string]int{}
	for i, v := range variants {
		key := CacheKey([]string{"/a", "/b"}, v)
		assert.NotEqual(t, base, key, "variant %d", i)
		if prev, dup := seen[key]; dup {
			t.Errorf("variants %d and %d share a key", prev, i)
		}
		seen[key] = i
	}
}
