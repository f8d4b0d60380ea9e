package git

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// RepoRoot returns the top-level directory of the git work tree containing dir.
func RepoRoot(dir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", errors.Wrap(err, "git rev-parse --show-toplevel")
	}
	return strings.TrimSpace(string(output)), nil
}

// IsIgnored reports whether path is excluded by the repo's ignore rules.
// Paths outside a git work tree are never ignored.
func IsIgnored(path string) (bool, error) {
	cmd := exec.Command("git", "check-ignore", "-q", path)
	cmd.Dir = filepath.Dir(path)
	err := cmd.Run()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			// 1: not ignored, 128: not a repository
			return false, nil
		}
		return false, errors.Wrapf(err, "git check-ignore %s", path)
	}
	return true, nil
}
