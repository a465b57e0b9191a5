// Package validate implements the validation engine: it evaluates a command
// string against the current RuleSet snapshot and renders a structured
// allow/block decision.
package validate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/doeshing/cmdguard/internal/domain"
	"github.com/doeshing/cmdguard/internal/pkg/pattern"
	"github.com/doeshing/cmdguard/internal/ports"
)

// CustomFilterFunc evaluates a source-specific filter predicate.
type CustomFilterFunc func(params map[string]string, command string) bool

// Service is the validation engine. It holds no mutable state of its own;
// every call reads one immutable snapshot, so any number of goroutines may
// call Validate concurrently.
type Service struct {
	Rules         ports.RuleSetSource
	Probe         ports.EnvProbe
	Logger        ports.Logger
	Strictness    domain.Strictness
	CustomFilters map[string]CustomFilterFunc
}

type matchedRule struct {
	rule *domain.ActiveRule
}

// Validate classifies one command. It never fails: unparseable or empty
// input simply matches no rules. For a fixed snapshot and external state the
// result is a pure function of the command string.
func (s *Service) Validate(ctx context.Context, command string, shell domain.ShellKind) domain.ValidationResult {
	command = strings.TrimSpace(command)
	snapshot := s.Rules.Snapshot()

	var matches []matchedRule
	for _, candidate := range snapshot.Candidates(pattern.FirstToken(command)) {
		if candidate.Disabled || candidate.Compiled == nil {
			continue
		}
		if !candidate.Rule.AppliesTo(shell) {
			continue
		}
		captures, ok := candidate.Compiled.Matches(command)
		if !ok {
			continue
		}
		// Filters run only after the pattern matched, keeping the common
		// non-matching path cheap.
		if !s.filtersHold(ctx, candidate.Rule.Filters, captures, command) {
			continue
		}
		matches = append(matches, matchedRule{rule: candidate})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return domain.MoreSevere(matches[i].rule.Rule.Severity, matches[j].rule.Rule.Severity)
	})

	risk := domain.SeverityInfo
	matched := make([]domain.RuleID, 0, len(matches))
	for _, m := range matches {
		matched = append(matched, m.rule.Rule.ID)
		if domain.MoreSevere(m.rule.Rule.Severity, risk) {
			risk = m.rule.Rule.Severity
		}
	}

	allowed := true
	if len(matches) > 0 && s.strictness().Blocks(risk) {
		allowed = false
	}

	return domain.ValidationResult{
		Allowed:     allowed,
		RiskLevel:   risk,
		Explanation: explanation(matches),
		Matched:     matched,
		Confidence:  confidence(matches),
	}
}

func (s *Service) strictness() domain.Strictness {
	if s.Strictness == "" {
		return domain.StrictnessDefault
	}
	return s.Strictness
}

// filtersHold evaluates every filter; all must pass for the rule to fire.
func (s *Service) filtersHold(ctx context.Context, filters []domain.Filter, captures []string, command string) bool {
	for _, f := range filters {
		if !s.filterHolds(ctx, f, captures, command) {
			return false
		}
	}
	return true
}

func (s *Service) filterHolds(ctx context.Context, f domain.Filter, captures []string, command string) bool {
	switch f.Kind {
	case domain.FilterPathExists:
		if f.Capture <= 0 || f.Capture >= len(captures) {
			return false
		}
		return s.Probe.PathExists(captures[f.Capture])
	case domain.FilterContains:
		return strings.Contains(command, f.Value)
	case domain.FilterNotContains:
		return !strings.Contains(command, f.Value)
	case domain.FilterEnvVar:
		value, ok := s.Probe.LookupEnv(f.Name)
		if !ok {
			return false
		}
		return f.Expected == "" || value == f.Expected
	case domain.FilterGitState:
		branch, dirty, ok := s.Probe.GitState(ctx)
		if !ok {
			return false
		}
		if f.Branch != "" && f.Branch != branch {
			return false
		}
		if f.Dirty != nil && *f.Dirty != dirty {
			return false
		}
		return true
	case domain.FilterCustom:
		fn, ok := s.CustomFilters[f.Name]
		if !ok {
			s.Logger.Debug("unknown custom filter", map[string]interface{}{"name": f.Name})
			return false
		}
		return fn(f.Params, command)
	default:
		s.Logger.Debug("unknown filter kind", map[string]interface{}{"kind": string(f.Kind)})
		return false
	}
}

// explanation lists the matched rules, most severe first.
func explanation(matches []matchedRule) string {
	if len(matches) == 0 {
		return "no matching safety rules"
	}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		rule := m.rule.Rule
		parts = append(parts, fmt.Sprintf("[%s] %s (%s)", rule.Severity, rule.Description, rule.ID))
	}
	return strings.Join(parts, "; ")
}

// confidence scores how certain the decision is: more matches, higher
// severities, more specific patterns, and satisfied filters all raise it.
func confidence(matches []matchedRule) float32 {
	if len(matches) == 0 {
		return 0
	}
	patternBonus := 0.0
	riskBonus := 0.0
	for _, m := range matches {
		patternBonus += 0.05 + 0.05*m.rule.Compiled.Specificity()
		if len(m.rule.Rule.Filters) > 0 {
			patternBonus += 0.03
		}
		riskBonus += riskWeight(m.rule.Rule.Severity)
	}
	conf := 0.5 + min(patternBonus, 0.3) + min(riskBonus, 0.2)
	return float32(min(conf, 1.0))
}

func riskWeight(s domain.Severity) float64 {
	switch s {
	case domain.SeverityCritical:
		return 0.2
	case domain.SeverityHigh:
		return 0.15
	case domain.SeverityModerate:
		return 0.1
	case domain.SeverityLow:
		return 0.05
	default:
		return 0.03
	}
}
