package domain

import (
	"fmt"
	"time"
)

// RuleID uniquely identifies a rule within one RuleSet. The format is
// source:category:name, e.g. "vendor:filesystem:remove-root". Uniqueness is
// enforced per merged RuleSet, not globally, so two providers may define the
// same logical rule under different ids.
type RuleID string

// MakeRuleID assembles the canonical id from its three segments.
func MakeRuleID(source SourceKind, category, name string) RuleID {
	return RuleID(fmt.Sprintf("%s:%s:%s", source, category, name))
}

// Metadata carries informational fields that never affect matching.
type Metadata struct {
	Author  string
	Version string
	Updated time.Time
}

// Rule is one immutable validation unit: a regex pattern over the command
// string, a severity, and optional contextual filters that must all hold in
// addition to the pattern match.
type Rule struct {
	ID          RuleID
	Source      RuleSource
	Category    string
	Pattern     string
	Shells      []ShellKind // nil means all shells
	Severity    Severity
	Description string
	Filters     []Filter
	Metadata    Metadata
}

// AppliesTo reports whether the rule is in scope for the given shell.
func (r Rule) AppliesTo(shell ShellKind) bool {
	if len(r.Shells) == 0 {
		return true
	}
	for _, s := range r.Shells {
		if s == shell {
			return true
		}
	}
	return false
}
