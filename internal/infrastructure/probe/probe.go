// Package probe implements ports.EnvProbe against the real filesystem,
// process environment, and git working tree.
package probe

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// OSProbe answers filter predicates from live system state.
type OSProbe struct {
	// WorkDir is the directory git state is read from; empty means the
	// process working directory.
	WorkDir string
}

// NewOSProbe builds a probe rooted at the current working directory.
func NewOSProbe() *OSProbe {
	wd, _ := os.Getwd()
	return &OSProbe{WorkDir: wd}
}

// PathExists reports whether the path names an existing file or directory.
// Relative paths resolve against the probe's working directory; ~ expands to
// the user's home.
func (p *OSProbe) PathExists(path string) bool {
	if path == "" {
		return false
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if !filepath.IsAbs(path) && p.WorkDir != "" {
		path = filepath.Join(p.WorkDir, path)
	}
	_, err := os.Stat(path)
	return err == nil
}

// LookupEnv reads the process environment.
func (p *OSProbe) LookupEnv(name string) (string, bool) {
	return os.LookupEnv(name)
}

// GitState reports the current branch and whether the working tree has
// uncommitted changes. ok is false outside a git repository.
func (p *OSProbe) GitState(ctx context.Context) (string, bool, bool) {
	dir := p.WorkDir
	if dir == "" {
		dir, _ = os.Getwd()
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return "", false, false
	}
	branch := runCmd(ctx, dir, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if branch == "" {
		return "", false, false
	}
	status := runCmd(ctx, dir, "git", "status", "--short")
	return branch, strings.TrimSpace(status) != "", true
}

func runCmd(ctx context.Context, dir, name string, args ...string) string {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
