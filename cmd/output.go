// File: cmd/output.go
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"ctxgather/pkg/gather"
	"ctxgather/pkg/version"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// report is the --report document.
type report struct {
	Tool        version.Info  `yaml:"tool"`
	GeneratedAt time.Time     `yaml:"generatedAt"`
	Roots       []string      `yaml:"roots"`
	CacheHit    bool          `yaml:"cacheHit"`
	CacheKey    string        `yaml:"cacheKey,omitempty"`
	JudgeFailed bool          `yaml:"judgeFailed,omitempty"`
	Result      gather.Result `yaml:",inline"`
}

func newReport(roots []string, out gather.Outcome, judgeFailed bool) report {
	return report{
		Tool:        version.Get(),
		GeneratedAt: time.Now().UTC(),
		Roots:       roots,
		CacheHit:    out.CacheHit,
		CacheKey:    out.CacheKey,
		JudgeFailed: judgeFailed,
		Result:      out.Result,
	}
}

// writeMarkdown writes the gathered document to path, creating parent directories.
func writeMarkdown(path, markdown string, logger *zap.Logger) error {
	logger.Debug("Writing markdown to output file", zap.String("outputFile", path))

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		logger.Error("Failed to create output directory", zap.String("path", filepath.Dir(path)), zap.Error(err))
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outFile, err := os.Create(path)
	if err != nil {
		logger.Error("Failed to create output file", zap.String("file", path), zap.Error(err))
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err := outFile.Close(); err != nil {
			logger.Error("Failed to close output file", zap.String("file", path), zap.Error(err))
		}
	}()

	writer := bufio.NewWriter(outFile)
	if _, err := writer.WriteString(markdown); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	if err := writer.Flush(); err != nil {
		logger.Error("Failed to flush output file", zap.String("file", path), zap.Error(err))
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

func writeReport(path string, r report, logger *zap.Logger) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Error("Failed to write report", zap.String("file", path), zap.Error(err))
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Debug("Wrote report", zap.String("file", path))
	return nil
}

// printSummary writes a one-line result summary for humans.
func printSummary(w io.Writer, out gather.Outcome, outputPath string) {
	res := out.Result
	ok := color.New(color.FgGreen, color.Bold)
	dim := color.New(color.Faint)

	ok.Fprintf(w, "✔ %d files", res.FileCount)
	fmt.Fprintf(w, " (%s)", humanize.Bytes(uint64(res.TotalSizeBytes)))
	if len(res.Skipped) > 0 {
		color.New(color.FgYellow).Fprintf(w, ", %d skipped", len(res.Skipped))
	}
	if res.Compression != nil {
		fmt.Fprintf(w, ", reduced %.1f%%", res.Compression.Ratio)
	}
	if outputPath != "" {
		fmt.Fprintf(w, " → %s", outputPath)
	}
	if out.CacheHit {
		dim.Fprint(w, " [cache hit]")
	} else {
		dim.Fprintf(w, " [%s]", res.Timing.Total.Round(time.Millisecond))
	}
	fmt.Fprintln(w)
}
