// Package check provides preflight validation of the library root before
// anything is moved.
package check

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Sentinel errors returned by Root.
var (
	ErrRootNotFound = errors.New("root directory does not exist")
	ErrNotDirectory = errors.New("not a directory")
)

// Root verifies that path names an existing directory (following symlinks)
// and returns its absolute form. A missing path wraps ErrRootNotFound and
// ErrNotDirectory; an existing non-directory wraps ErrNotDirectory.
func Root(path string) (string, error) {
	fi, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("%s: %w", path, errors.Join(ErrRootNotFound, ErrNotDirectory))
	case err != nil:
		return "", fmt.Errorf("stat root: %w", err)
	case !fi.IsDir():
		return "", fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	return abs, nil
}
