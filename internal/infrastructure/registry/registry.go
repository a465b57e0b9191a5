// Package registry merges provider outputs into immutable RuleSet
// snapshots. Building a new snapshot never blocks readers of the current
// one: the swap is a single atomic pointer replace.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/doeshing/cmdguard/internal/domain"
	"github.com/doeshing/cmdguard/internal/pkg/pattern"
	"github.com/doeshing/cmdguard/internal/ports"
)

// providerState tracks one provider and its last successful output, so a
// failing source degrades to stale coverage instead of dropping out.
type providerState struct {
	provider ports.RuleProvider
	lastGood []domain.Rule
	loaded   bool
	warned   bool
}

// Registry owns the current RuleSet snapshot.
type Registry struct {
	mu         sync.Mutex // serializes reloads, never held during reads
	providers  []*providerState
	overrides  map[domain.RuleID]domain.Override
	categories map[string]bool
	log        ports.Logger

	current atomic.Pointer[domain.RuleSet]
}

// New wires the registry. Provider order does not matter; priorities decide
// merge conflicts. The initial snapshot is empty until the first Reload.
func New(providers []ports.RuleProvider, cfg domain.Config, log ports.Logger) *Registry {
	r := &Registry{
		overrides:  make(map[domain.RuleID]domain.Override, len(cfg.Overrides)),
		categories: cfg.Categories,
		log:        log,
	}
	for id, ov := range cfg.Overrides {
		r.overrides[domain.RuleID(id)] = ov
	}
	for _, p := range providers {
		r.providers = append(r.providers, &providerState{provider: p})
	}
	r.current.Store(domain.NewRuleSet(nil))
	return r
}

// Snapshot implements ports.RuleSetSource. Always complete, never nil.
func (r *Registry) Snapshot() *domain.RuleSet {
	return r.current.Load()
}

// Reload collects rules from every provider, merges them by priority,
// applies overrides, compiles patterns, and atomically publishes the new
// snapshot. Per-provider failures are logged once and served from the
// last-known-good output.
func (r *Registry) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	merged := r.collect(ctx)
	rs := r.build(merged)
	r.current.Store(rs)
	r.log.Info("ruleset rebuilt", map[string]interface{}{
		"rules":  rs.Len(),
		"active": rs.ActiveLen(),
	})
	return nil
}

// RefreshAndReload refreshes every provider that reports a stale source,
// then rebuilds the snapshot.
func (r *Registry) RefreshAndReload(ctx context.Context) error {
	for _, st := range r.stateList() {
		if !st.provider.NeedsRefresh() {
			continue
		}
		if err := st.provider.Refresh(ctx); err != nil {
			r.log.Warn("provider refresh failed", map[string]interface{}{
				"provider": st.provider.Name(),
				"error":    err.Error(),
			})
			continue
		}
		// Force a fresh LoadRules on the next collect.
		r.mu.Lock()
		st.loaded = false
		r.mu.Unlock()
	}
	return r.Reload(ctx)
}

func (r *Registry) stateList() []*providerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*providerState, len(r.providers))
	copy(out, r.providers)
	return out
}

// collect gathers every provider's rules, falling back to the last-known-good
// list on failure. Caller holds r.mu.
func (r *Registry) collect(ctx context.Context) []domain.Rule {
	// Ascending priority so that later entries overwrite earlier ones in
	// the merge map: the highest priority wins, and within equal priority
	// the last-loaded provider wins (logged below).
	states := make([]*providerState, len(r.providers))
	copy(states, r.providers)
	sort.SliceStable(states, func(i, j int) bool {
		return states[i].provider.Priority() < states[j].provider.Priority()
	})

	byID := make(map[domain.RuleID]domain.Rule)
	prio := make(map[domain.RuleID]uint32)
	var order []domain.RuleID

	for _, st := range states {
		rules := st.lastGood
		if !st.loaded {
			loaded, err := st.provider.LoadRules(ctx)
			if err != nil {
				if !st.warned {
					r.log.Warn("provider load failed", map[string]interface{}{
						"provider": st.provider.Name(),
						"error":    err.Error(),
					})
					st.warned = true
				}
			} else {
				st.lastGood = loaded
				st.loaded = true
				st.warned = false
			}
			rules = st.lastGood
		}
		p := st.provider.Priority()
		for _, rule := range rules {
			if prev, ok := byID[rule.ID]; ok {
				if prio[rule.ID] == p {
					// Same-priority duplicate ids indicate an authoring bug;
					// last-loaded wins by policy.
					r.log.Warn("duplicate rule id, last-loaded wins", map[string]interface{}{
						"id":       string(rule.ID),
						"kept":     rule.Source.String(),
						"replaced": prev.Source.String(),
					})
				}
			} else {
				order = append(order, rule.ID)
			}
			byID[rule.ID] = rule
			prio[rule.ID] = p
		}
	}

	out := make([]domain.Rule, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}

// build applies overrides and category switches, compiles patterns, and
// freezes the snapshot. Overridden rules stay present but inactive so
// introspection tooling can still see them.
func (r *Registry) build(rules []domain.Rule) *domain.RuleSet {
	active := make([]domain.ActiveRule, 0, len(rules))
	for _, rule := range rules {
		ar := domain.ActiveRule{Rule: rule}

		if enabled, ok := r.categories[rule.Category]; ok && !enabled {
			ar.Disabled = true
		}
		if ov, ok := r.overrides[rule.ID]; ok {
			if ov.Disable {
				ar.Disabled = true
			}
			if ov.Severity != "" {
				if sev, ok := domain.ParseSeverity(ov.Severity); ok {
					ar.Rule.Severity = sev
				}
			}
		}

		compiled, err := pattern.Compile(rule.Pattern)
		if err != nil {
			r.log.Warn("rule dropped, pattern failed to compile", map[string]interface{}{
				"id":    string(rule.ID),
				"error": err.Error(),
			})
			continue
		}
		ar.Compiled = compiled
		active = append(active, ar)
	}
	return domain.NewRuleSet(active)
}

// Providers describes the registered sources for status reporting.
func (r *Registry) Providers() []ProviderInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ProviderInfo, 0, len(r.providers))
	for _, st := range r.providers {
		out = append(out, ProviderInfo{
			Name:     st.provider.Name(),
			Priority: st.provider.Priority(),
			Loaded:   st.loaded,
			Rules:    len(st.lastGood),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// ProviderInfo is a status row for one registered source.
type ProviderInfo struct {
	Name     string
	Priority uint32
	Loaded   bool
	Rules    int
}

func (p ProviderInfo) String() string {
	state := "failed"
	if p.Loaded {
		state = "ok"
	}
	return fmt.Sprintf("%s (priority %d, %d rules, %s)", p.Name, p.Priority, p.Rules, state)
}

var _ ports.RuleSetSource = (*Registry)(nil)
