// File: pkg/gather/markdown.go
package gather

import (
	"strings"

	"ctxgather/pkg/reader"
)

// RenderMarkdown writes the tree followed by one fenced block per file, in order.
func RenderMarkdown(finalTree string, files []reader.FileEntry) string {
	var b strings.Builder

	b.WriteString("# Project Structure\n\n")
	b.WriteString(fence(finalTree, ""))

	for _, f := range files {
		b.WriteString("\n## " + f.RelativePath + "\n\n")
		b.WriteString(fence(f.Content, f.Category.FenceTag()))
	}
	return b.String()
}

// fence wraps content in a code fence longer than any backtick run inside it.
func fence(content, tag string) string {
	marker := "```"
	for strings.Contains(content, marker) {
		marker += "`"
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return marker + tag + "\n" + content + marker + "\n"
}
