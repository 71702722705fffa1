package main

import (
	"log"
	"os"
	"strings"

	"ctxgather/cmd"
	"ctxgather/pkg/logging"
	"ctxgather/pkg/version"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	logger, err := logging.Setup(false, "ctxgather", version.Version)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := cmd.Execute(logger); err != nil {
		logger.Debug("ctxgather execution failed", zap.Error(err))
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		syncLogger(logger)
		os.Exit(1)
	}
	syncLogger(logger)
}

// syncLogger flushes the logger when stderr can be synced. Terminals and pipes
// report EINVAL on fsync, which is not worth surfacing.
func syncLogger(logger *zap.Logger) {
	if !term.IsTerminal(int(os.Stderr.Fd())) && !isRegularFile(os.Stderr) {
		return
	}
	if syncErr := logger.Sync(); syncErr != nil {
		lowerErr := strings.ToLower(syncErr.Error())
		if !strings.Contains(lowerErr, "invalid argument") && !strings.Contains(lowerErr, "inappropriate ioctl") {
			log.Printf("Logger sync failed: %v", syncErr)
		}
	}
}

// isRegularFile checks if the given file is a regular file.
func isRegularFile(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}
