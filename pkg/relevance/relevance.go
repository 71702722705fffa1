// Package relevance adapts a plain "ask a model" call into the relevance judgment
// the gather pipeline consumes.
package relevance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"ctxgather/pkg/cache"
	"ctxgather/pkg/gather"
)

// AskFunc sends a prompt to a reasoning service and returns its reply text.
type AskFunc func(ctx context.Context, prompt string) (string, error)

const promptTemplate = `You are selecting which parts of a repository are irrelevant to understanding it.
Below is the directory tree. Reply with a JSON array of exclusion patterns and nothing else.
A pattern is either a directory or file name (for example "fixtures" or "CHANGELOG.md")
or a trailing-extension glob (for example "*.snap"). Reply with [] if nothing should be excluded.

Directory tree:
%s`

// Prompt builds the exclusion prompt around tree.
func Prompt(tree string) string {
	return fmt.Sprintf(promptTemplate, tree)
}

// FromAsk wraps ask as a gather.RelevanceFunc.
func FromAsk(ask AskFunc) gather.RelevanceFunc {
	return func(ctx context.Context, tree string) ([]string, error) {
		reply, err := ask(ctx, Prompt(tree))
		if err != nil {
			return nil, err
		}
		return ParsePatterns(reply), nil
	}
}

// Memoize caches successful replies in ns, keyed by model and prompt.
// Errors are returned unchanged and never stored.
func Memoize(ask AskFunc, ns cache.Namespace[string], model string) AskFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		key := cache.MakeKey(model, prompt)
		if reply, ok := ns.Get(key); ok {
			return reply, nil
		}
		reply, err := ask(ctx, prompt)
		if err != nil {
			return "", err
		}
		ns.Set(key, reply)
		return reply, nil
	}
}

// ParsePatterns extracts exclusion patterns from a model reply. A JSON array of
// strings is preferred, optionally inside a code fence; otherwise every non-empty
// line is a pattern with list bullets and quotes removed.
func ParsePatterns(reply string) []string {
	body := unfence(strings.TrimSpace(reply))

	var list []string
	if err := json.Unmarshal([]byte(body), &list); err == nil {
		return clean(list)
	}
	if start, end := strings.Index(body, "["), strings.LastIndex(body, "]"); start >= 0 && end > start {
		if err := json.Unmarshal([]byte(body[start:end+1]), &list); err == nil {
			return clean(list)
		}
	}

	var lines []string
	for _, line := range strings.Split(body, "\n") {
		lines = append(lines, stripBullet(strings.TrimSpace(line)))
	}
	return clean(lines)
}

// unfence returns the contents of the first ``` block, or s unchanged.
func unfence(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func stripBullet(line string) string {
	for _, bullet := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, bullet) {
			return strings.TrimSpace(line[len(bullet):])
		}
	}
	// Numbered list: "1. foo" or "2) foo".
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i+1 < len(line) && (line[i] == '.' || line[i] == ')') && line[i+1] == ' ' {
		return strings.TrimSpace(line[i+2:])
	}
	return line
}

func clean(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	seen := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		p = strings.Trim(strings.TrimSpace(p), "\"'`,")
		if p == "" || p == "[" || p == "]" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// CommandAsk runs name with args for every prompt, feeding the prompt on stdin
// and returning trimmed stdout as the reply.
func CommandAsk(name string, args ...string) AskFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdin = strings.NewReader(prompt)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("judge command %q failed: %w (stderr: %s)", name, err, strings.TrimSpace(stderr.String()))
		}
		return strings.TrimSpace(stdout.String()), nil
	}
}
