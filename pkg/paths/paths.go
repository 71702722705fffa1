// Package paths resolves and validates the root directories handed to a gather call.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrNoPaths is returned when no root path was supplied.
	ErrNoPaths = errors.New("no paths provided")
	// ErrPathNotFound is returned when a root path does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrNotADirectory is returned when a root path exists but is not a directory.
	ErrNotADirectory = errors.New("not a directory")
)

// PathError records which input path failed validation and why.
type PathError struct {
	Path string // Path as supplied by the caller.
	Err  error  // ErrPathNotFound, ErrNotADirectory or the underlying stat error.
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid root path %q: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ValidateRoots resolves every path to an absolute directory, preserving input order.
// The first invalid path aborts the whole call.
func ValidateRoots(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}

	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return nil, &PathError{Path: p, Err: err}
		}

		info, err := os.Stat(absPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, &PathError{Path: p, Err: ErrPathNotFound}
			}
			return nil, &PathError{Path: p, Err: err}
		}
		if !info.IsDir() {
			return nil, &PathError{Path: p, Err: ErrNotADirectory}
		}
		resolved = append(resolved, absPath)
	}
	return resolved, nil
}
