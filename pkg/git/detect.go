// Package git detects which project the current working directory belongs
// to, so liner output can name the repository it is operating in.
package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// repoNameTimeout bounds the git invocation; a hung git (e.g. a stale
// network filesystem) must not stall a status print.
const repoNameTimeout = 5 * time.Second

// RepoName returns the name of the enclosing git repository: the base name
// of `git rev-parse --show-toplevel`. Outside a repo, or when git is not
// installed, it falls back to the base name of the working directory, and
// returns "" only when even that cannot be resolved.
func RepoName() string {
	ctx, cancel := context.WithTimeout(context.Background(), repoNameTimeout)
	defer cancel()

	if out, err := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel").Output(); err == nil {
		if top := strings.TrimSpace(string(out)); top != "" {
			return filepath.Base(top)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Base(wd)
}
