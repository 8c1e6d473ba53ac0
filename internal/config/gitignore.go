package config

import (
	"os"
	"path/filepath"
)

const gitignoreContents = "# managed by codegraph init; excludes local state from version control\n*\n"

// WriteGitignore auto-writes .codegraph/.gitignore so the database and
// caches never end up committed, per spec.md §6. It ignores everything
// inside the directory; the directory itself is still created by the
// project's own .gitignore or left untracked.
func WriteGitignore(codegraphDir string) error {
	if err := os.MkdirAll(codegraphDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(codegraphDir, ".gitignore")
	return os.WriteFile(path, []byte(gitignoreContents), 0o644)
}
