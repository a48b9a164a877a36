package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the project file looked up by the CLI.
const ManifestName = "ember.toml"

// FindManifest looks for ember.toml in startDir and its parents. The search
// ends at the filesystem root or at a directory holding .git, whichever
// comes first; the .git directory itself is still checked.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		found, err := exists(candidate)
		if err != nil || found {
			return candidate, found, err
		}
		repoRoot, err := exists(filepath.Join(dir, ".git"))
		if err != nil {
			return "", false, err
		}
		parent := filepath.Dir(dir)
		if repoRoot || parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %q: %w", path, err)
}
