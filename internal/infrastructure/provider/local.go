package provider

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/doeshing/cmdguard/internal/domain"
	"github.com/doeshing/cmdguard/internal/infrastructure/ruleformat"
	"github.com/doeshing/cmdguard/internal/ports"
)

// Local loads rules from a user-writable directory of YAML files and
// supports hot reload: NeedsRefresh flips to true whenever any file in the
// directory changes.
type Local struct {
	dir      string
	priority uint32
	log      ports.Logger

	fingerprint string
}

// NewLocal watches the given directory, ~/.cmdguard/rules.d by default.
func NewLocal(dir string, priority uint32, log ports.Logger) *Local {
	if dir == "" {
		dir = filepath.Join(userHomeDir(), ".cmdguard", "rules.d")
	}
	return &Local{dir: expandPath(dir), priority: priority, log: log}
}

func (l *Local) Name() string     { return "local" }
func (l *Local) Priority() uint32 { return l.priority }

// Dir returns the watched directory.
func (l *Local) Dir() string { return l.dir }

// LoadRules parses every .yaml/.yml file in the directory. A malformed file
// degrades coverage but never fails the provider; a missing directory just
// yields no rules.
func (l *Local) LoadRules(ctx context.Context) ([]domain.Rule, error) {
	files, err := l.ruleFiles()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.fingerprint = ""
			return nil, nil
		}
		return nil, unavailable("local", err)
	}

	var rules []domain.Rule
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, unavailable("local", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			l.log.Warn("local rule file unreadable", map[string]interface{}{"path": path, "error": err.Error()})
			continue
		}
		source := domain.RuleSource{Kind: domain.SourceLocal, Path: path}
		parsed, errs := ruleformat.ParseRules(string(data), source)
		for _, perr := range errs {
			l.log.Warn("local rule skipped", map[string]interface{}{"path": path, "error": perr.Error()})
		}
		rules = append(rules, parsed...)
	}
	l.fingerprint, _ = l.currentFingerprint()
	return rules, nil
}

// NeedsRefresh compares the directory fingerprint against the one taken at
// the last load.
func (l *Local) NeedsRefresh() bool {
	current, err := l.currentFingerprint()
	if err != nil {
		return l.fingerprint != ""
	}
	return current != l.fingerprint
}

// Refresh just re-fingerprints; the registry re-invokes LoadRules afterwards.
func (l *Local) Refresh(context.Context) error {
	current, err := l.currentFingerprint()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return unavailable("local", err)
	}
	l.fingerprint = current
	return nil
}

func (l *Local) ruleFiles() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(l.dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// currentFingerprint folds every rule file's name, size, and mtime into one
// comparable string.
func (l *Local) currentFingerprint() (string, error) {
	files, err := l.ruleFiles()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "%s|%d|%d;", path, info.Size(), info.ModTime().UnixNano())
	}
	return b.String(), nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(userHomeDir(), path[2:])
	}
	return path
}

func userHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
