package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// projectMarkers are paths that must exist below the module root.
var projectMarkers = []string{"go.mod", "cmd/vtrack", "internal/tracker"}

// GetProjectRoot walks up from this source file to the directory holding go.mod.
func GetProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("failed to get caller information")
	}
	for dir := filepath.Dir(filename); ; {
		if FileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find go.mod above %s", filepath.Dir(filename))
		}
		dir = parent
	}
}

// ValidateProjectRoot checks that root is the vtrack module root.
func ValidateProjectRoot(root string) error {
	for _, m := range projectMarkers {
		if !FileExists(filepath.Join(root, m)) {
			return fmt.Errorf("%s not found under %s", m, root)
		}
	}
	return nil
}

// GetProjectRootValidated returns the project root after ValidateProjectRoot.
func GetProjectRootValidated() (string, error) {
	root, err := GetProjectRoot()
	if err != nil {
		return "", err
	}
	if err := ValidateProjectRoot(root); err != nil {
		return "", fmt.Errorf("invalid project root: %w", err)
	}
	return root, nil
}

// SequencesDir is where generated sequences live inside the project.
func SequencesDir(root string) string {
	return filepath.Join(root, "testdata", "sequences")
}

// BinaryPath is where integration tests place the built CLI.
func BinaryPath(root string) string {
	return filepath.Join(root, "bin", "vtrack")
}

// CreateTempDir returns a per-test scratch directory.
func CreateTempDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// EnsureDir creates path and its parents.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o750)
}

// FileExists reports whether path exists (file or directory).
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DirExists reports whether path is an existing directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
