package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/doeshing/cmdguard/internal/domain"
	"github.com/doeshing/cmdguard/internal/infrastructure/ruleformat"
	"github.com/doeshing/cmdguard/internal/ports"
)

// Embedded serves the rules compiled into the binary. It performs zero I/O
// and is the reliability floor: validation always has at least this source.
type Embedded struct {
	version  string
	raw      []byte
	priority uint32
	log      ports.Logger

	once  sync.Once
	rules []domain.Rule
	err   error
}

// NewEmbedded wraps the compiled-in rule corpus.
func NewEmbedded(version string, raw []byte, priority uint32, log ports.Logger) *Embedded {
	return &Embedded{version: version, raw: raw, priority: priority, log: log}
}

func (e *Embedded) Name() string     { return "embedded" }
func (e *Embedded) Priority() uint32 { return e.priority }

// LoadRules parses the corpus once and serves the result forever after.
func (e *Embedded) LoadRules(context.Context) ([]domain.Rule, error) {
	e.once.Do(func() {
		source := domain.RuleSource{Kind: domain.SourceEmbedded, Version: e.version}
		rules, errs := ruleformat.ParseRules(string(e.raw), source)
		for _, err := range errs {
			e.log.Warn("embedded rule skipped", map[string]interface{}{"error": err.Error()})
		}
		if len(rules) == 0 {
			e.err = parseFailed("embedded", fmt.Errorf("corpus yielded no rules"))
			return
		}
		e.rules = rules
	})
	return e.rules, e.err
}

// NeedsRefresh is always false: the corpus cannot change at runtime.
func (e *Embedded) NeedsRefresh() bool { return false }

func (e *Embedded) Refresh(context.Context) error { return nil }

var _ ports.RuleProvider = (*Embedded)(nil)
