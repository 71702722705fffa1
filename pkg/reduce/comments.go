package reduce

import (
	"strings"

	"ctxgather/pkg/reader"
)

// hashComments lists the categories whose line comments start with '#' and
// that have no C-style block comments.
var hashComments = map[reader.Category]bool{
	reader.CategoryPython: true,
	reader.CategoryRuby:   true,
	reader.CategoryShell:  true,
}

// stripComments removes line and block comments. Block state carries across
// lines; lines that held nothing but a comment are dropped.
func stripComments(lines []string, hash bool) []string {
	lineMarker := "//"
	if hash {
		lineMarker = "#"
	}

	out := make([]string, 0, len(lines))
	inBlock := false
	for _, line := range lines {
		var kept strings.Builder
		rest := line
		for rest != "" {
			if inBlock {
				end := strings.Index(rest, "*/")
				if end < 0 {
					rest = ""
					break
				}
				rest = rest[end+2:]
				inBlock = false
				continue
			}

			lineIdx := strings.Index(rest, lineMarker)
			blockIdx := -1
			if !hash {
				blockIdx = strings.Index(rest, "/*")
			}
			if blockIdx >= 0 && (lineIdx < 0 || blockIdx < lineIdx) {
				kept.WriteString(rest[:blockIdx])
				rest = rest[blockIdx+2:]
				inBlock = true
				continue
			}
			if lineIdx >= 0 {
				kept.WriteString(rest[:lineIdx])
			} else {
				kept.WriteString(rest)
			}
			break
		}

		stripped := strings.TrimRight(kept.String(), " \t")
		if strings.TrimSpace(stripped) == "" && strings.TrimSpace(line) != "" {
			continue
		}
		out = append(out, stripped)
	}
	return out
}
