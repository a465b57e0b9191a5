// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and
// external adapters (infrastructure). The validation engine and the rule
// registry depend only on these abstractions, never on concrete rule
// sources, storage, or transports.
package ports

import (
	"context"

	"github.com/doeshing/cmdguard/internal/domain"
)

// RuleProvider is the uniform interface every rule source implements.
// New sources are added by implementing this interface, never by modifying
// the registry.
type RuleProvider interface {
	Name() string
	// Priority ranks the provider for id-collision resolution; higher wins.
	Priority() uint32
	// LoadRules returns the provider's current rules. Implementations may
	// perform I/O and must honor the context.
	LoadRules(ctx context.Context) ([]domain.Rule, error)
	// NeedsRefresh reports whether the provider's backing source may have
	// changed since the last load.
	NeedsRefresh() bool
	// Refresh re-reads the backing source. Failures are non-fatal; the
	// provider keeps serving its last-known-good rules.
	Refresh(ctx context.Context) error
}

// FeedFetcher retrieves raw rule feed bytes for the remote provider. The
// transport behind it is out of the engine's scope.
type FeedFetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// RuleSetSource hands out the current immutable RuleSet snapshot. Reads
// never block and never observe a partially built set.
type RuleSetSource interface {
	Snapshot() *domain.RuleSet
}

// EnvProbe answers the environment questions contextual filters ask.
// Implementations touch the filesystem, process environment, and git; tests
// substitute fakes.
type EnvProbe interface {
	PathExists(path string) bool
	LookupEnv(name string) (string, bool)
	// GitState reports the current branch and dirtiness of the working
	// directory. ok is false outside a git repository.
	GitState(ctx context.Context) (branch string, dirty bool, ok bool)
}

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.cmdguard/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// AuditRepository persists validation decisions for later inspection.
type AuditRepository interface {
	Record(record domain.AuditRecord) error
	Recent(limit int, search string) ([]domain.AuditRecord, error)
	Path() string
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
