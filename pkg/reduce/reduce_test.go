package reduce

import (
	"fmt"
	"strings"
	"testing"

	"ctxgather/pkg/reader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(name, content string) reader.FileEntry {
	return reader.FileEntry{RelativePath: name, Content: content, Category: reader.CategoryFor(name)}
}

func numbered(n int, prefix string) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("%s %d", prefix, i)
	}
	return strings.Join(lines, "\n")
}

func TestReduceTruncatesNonCode(t *testing.T) {
	out, _ := Reduce([]reader.FileEntry{file("notes.md", numbered(10, "line"))}, Options{MaxFileLines: 3})
	require.Len(t, out, 1)
	assert.Equal(t, "line 0\nline 1\nline 2\n... (7 more lines omitted)", out[0].Content)
}

func TestReduceLeavesShortFilesAlone(t *testing.T) {
	src := "package main\n\nfunc main() {}\n"
	out, stats := Reduce([]reader.FileEntry{file("main.go", src)}, Options{MaxFileLines: 50})
	assert.Equal(t, src, out[0].Content)
	assert.Equal(t, float64(0), stats.Ratio)
}

func TestReduceSignaturesOnly(t *testing.T) {
	src := strings.Join([]string{
		`import { a } from "./a"`,
		`export function run(x: number) {`,
		`  const y = x * 2`,
		`  return y`,
		`}`,
		`interface Shape {`,
		`  area(): number`,
		`}`,
	}, "\n")
	out, _ := Reduce([]reader.FileEntry{file("run.ts", src)}, Options{SignaturesOnly: true})
	assert.Equal(t, strings.Join([]string{
		`import { a } from "./a"`,
		`export function run(x: number) {`,
		`interface Shape {`,
	}, "\n"), out[0].Content)
}

func TestReduceStripCommentsAndWhitespace(t *testing.T) {
	src := strings.Join([]string{
		"package main",
		"",
		"",
		"// Greeting is printed.",
		"var greeting = \"hi\" // trailing",
		"/* block",
		"   still block */",
		"func main() { /* inline */ println(greeting) }",
	}, "\n")
	out, stats := Reduce([]reader.FileEntry{file("main.go", src)}, DefaultOptions())
	assert.Equal(t, strings.Join([]string{
		"package main",
		"",
		"var greeting = \"hi\"",
		"func main() {  println(greeting) }",
	}, "\n"), out[0].Content)
	assert.Greater(t, stats.Ratio, float64(0))
	assert.LessOrEqual(t, stats.Ratio, float64(100))
}

func TestReduceHashComments(t *testing.T) {
	src := "# module doc\nimport os  # os\n\ndef f():\n    return 1\n"
	out, _ := Reduce([]reader.FileEntry{file("m.py", src)}, DefaultOptions())
	assert.Equal(t, "import os\n\ndef f():\n    return 1\n", out[0].Content)
}

func TestReduceCommentStrippingIsBestEffort(t *testing.T) {
	// The URL inside the string literal is cut: string literals are not tracked.
	src := `var u = "http://example.com"`
	out, _ := Reduce([]reader.FileEntry{file("u.go", src)}, Options{StripComments: true})
	assert.Equal(t, `var u = "http:`, out[0].Content)
}

func TestReduceBudgetedRetention(t *testing.T) {
	lines := []string{"package big"}
	for i := 0; i < 20; i++ {
		lines = append(lines, fmt.Sprintf("x%d := %d", i, i))
	}
	lines = append(lines, "func Tail() error {", "\treturn nil", "}")
	for i := 0; i < 20; i++ {
		lines = append(lines, fmt.Sprintf("y%d := %d", i, i))
	}

	out, _ := Reduce([]reader.FileEntry{file("big.go", strings.Join(lines, "\n"))}, Options{MaxFileLines: 6})
	got := strings.Split(out[0].Content, "\n")
	assert.Equal(t, []string{
		"package big",
		"x0 := 0",
		"x1 := 1",
		"x2 := 2",
		ElisionMarker,
		"func Tail() error {",
		"\treturn nil",
		"... (38 more lines omitted)",
	}, got)
}

func TestReduceCountsTerminatedLines(t *testing.T) {
	exact := strings.Repeat("line\n", 5)
	for _, name := range []string{"notes.md", "main.go"} {
		out, stats := Reduce([]reader.FileEntry{file(name, exact)}, Options{MaxFileLines: 5})
		assert.Equal(t, exact, out[0].Content, name)
		assert.Equal(t, float64(0), stats.Ratio, name)
	}

	out, _ := Reduce([]reader.FileEntry{file("notes.md", numbered(10, "line")+"\n")}, Options{MaxFileLines: 3})
	assert.Equal(t, "line 0\nline 1\nline 2\n... (7 more lines omitted)\n", out[0].Content)

	out, _ = Reduce([]reader.FileEntry{file("main.go", "package main\n"+numbered(9, "// c")+"\n")}, Options{MaxFileLines: 4})
	assert.True(t, strings.HasSuffix(out[0].Content, "... (6 more lines omitted)\n"), out[0].Content)
}

func TestReduceNeverGrowsContent(t *testing.T) {
	for _, src := range []string{"a\n", "a\n\n", "\n", "x := 1\ny := 2\n", strings.Repeat("row\n", 40)} {
		for _, name := range []string{"f.go", "f.txt"} {
			out, _ := Reduce([]reader.FileEntry{file(name, src)}, Options{MaxFileLines: 10, StripComments: true, MinimizeWhitespace: true})
			assert.LessOrEqual(t, len(out[0].Content), len(src), "%s %q", name, src)
		}
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	in := []reader.FileEntry{file("notes.md", numbered(5, "l"))}
	original := in[0].Content
	_, _ = Reduce(in, Options{MaxFileLines: 1})
	assert.Equal(t, original, in[0].Content)
}

func TestRatioBounds(t *testing.T) {
	assert.Equal(t, float64(0), Ratio(0, 0))
	assert.Equal(t, float64(0), Ratio(0, 10))
	assert.Equal(t, float64(50), Ratio(100, 50))
	assert.Equal(t, float64(100), Ratio(100, 0))
	assert.Equal(t, float64(0), Ratio(10, 20))

	_, stats := Reduce(nil, DefaultOptions())
	assert.Equal(t, Stats{}, stats)
}
