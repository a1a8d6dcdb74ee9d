package vcs

import (
	"os"
	"path/filepath"

	"szz/internal/errors"
)

// FindRoot walks up from startDir to the nearest directory holding a .git
// entry. Worktrees and submodules use a .git file, which also counts.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.VcsQueryFailed(nil, "no git repository found at or above %s", startDir)
}
