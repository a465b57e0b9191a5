package domain

import (
	"time"

	"github.com/doeshing/cmdguard/internal/pkg/pattern"
)

// ActiveRule pairs a merged rule with its compiled pattern and override
// state. Disabled rules stay in the set for introspection but never fire.
type ActiveRule struct {
	Rule     Rule
	Compiled *pattern.CompiledPattern
	Disabled bool
}

// RuleSet is an immutable, deduplicated, override-applied snapshot of rules.
// It is built once per reload cycle, never mutated afterwards, and swapped
// atomically, so any number of concurrent validations may share it.
type RuleSet struct {
	rules   []ActiveRule
	byID    map[RuleID]int
	index   *pattern.PrefixIndex
	builtAt time.Time
	counts  map[SourceKind]int
}

// NewRuleSet freezes the given rules into a snapshot and builds the prefix
// index over the enabled ones. The slice is owned by the RuleSet afterwards.
func NewRuleSet(rules []ActiveRule) *RuleSet {
	rs := &RuleSet{
		rules:   rules,
		byID:    make(map[RuleID]int, len(rules)),
		index:   pattern.NewPrefixIndex(),
		builtAt: time.Now(),
		counts:  make(map[SourceKind]int),
	}
	for i, ar := range rules {
		rs.byID[ar.Rule.ID] = i
		rs.counts[ar.Rule.Source.Kind]++
		if !ar.Disabled && ar.Compiled != nil {
			rs.index.Add(ar.Compiled, i)
		}
	}
	return rs
}

// Candidates returns the enabled rules worth evaluating for a command whose
// first token is the given string.
func (rs *RuleSet) Candidates(firstToken string) []*ActiveRule {
	indices := rs.index.Candidates(firstToken)
	out := make([]*ActiveRule, 0, len(indices))
	for _, i := range indices {
		out = append(out, &rs.rules[i])
	}
	return out
}

// Lookup finds a rule by id, including disabled ones.
func (rs *RuleSet) Lookup(id RuleID) (ActiveRule, bool) {
	i, ok := rs.byID[id]
	if !ok {
		return ActiveRule{}, false
	}
	return rs.rules[i], true
}

// Rules returns every rule in the snapshot, including disabled ones. The
// returned slice must be treated as read-only.
func (rs *RuleSet) Rules() []ActiveRule { return rs.rules }

// Len reports the total number of rules, disabled included.
func (rs *RuleSet) Len() int { return len(rs.rules) }

// ActiveLen reports how many rules can actually fire.
func (rs *RuleSet) ActiveLen() int {
	n := 0
	for _, ar := range rs.rules {
		if !ar.Disabled {
			n++
		}
	}
	return n
}

// BuiltAt returns the snapshot construction time.
func (rs *RuleSet) BuiltAt() time.Time { return rs.builtAt }

// SourceCounts reports how many rules each source contributed.
func (rs *RuleSet) SourceCounts() map[SourceKind]int {
	out := make(map[SourceKind]int, len(rs.counts))
	for k, v := range rs.counts {
		out[k] = v
	}
	return out
}
