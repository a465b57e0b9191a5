// Package pattern compiles rule regexes into matchable form and maintains
// the first-token prefix index used to narrow candidate rules before any
// regex runs.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Error reports a pattern that failed to compile.
type Error struct {
	Expr  string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pattern %q failed to compile: %v", e.Expr, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// CompiledPattern wraps a validated regex plus the literal command token it
// is anchored to, when one can be extracted statically.
type CompiledPattern struct {
	expr        string
	re          *regexp.Regexp
	prefixToken string
	specificity float64
}

// Compile validates the regex eagerly. Go's RE2 engine gives linear-time
// matching, so catastrophic backtracking from rule authors is not a concern.
func Compile(expr string) (*CompiledPattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &Error{Expr: expr, Cause: err}
	}
	return &CompiledPattern{
		expr:        expr,
		re:          re,
		prefixToken: extractPrefixToken(expr),
		specificity: literalRatio(expr),
	}, nil
}

// Expr returns the original pattern text.
func (p *CompiledPattern) Expr() string { return p.expr }

// PrefixToken returns the literal first command token the pattern is
// anchored to, or "" when the pattern must be checked against every command.
func (p *CompiledPattern) PrefixToken() string { return p.prefixToken }

// Specificity estimates how literal the pattern is (0..1). Used as an input
// to the confidence score, never for matching.
func (p *CompiledPattern) Specificity() float64 { return p.specificity }

// Matches runs the pattern and returns its capture groups. Group 0 is the
// whole match, so filter capture references start at 1.
func (p *CompiledPattern) Matches(command string) ([]string, bool) {
	groups := p.re.FindStringSubmatch(command)
	if groups == nil {
		return nil, false
	}
	return groups, true
}

// extractPrefixToken returns the literal program name a pattern is anchored
// to. Only patterns of the form ^<literal>... qualify; anything else must be
// evaluated against every command, since an unanchored pattern may match
// mid-string (e.g. after "sudo").
func extractPrefixToken(expr string) string {
	if !strings.HasPrefix(expr, "^") {
		return ""
	}
	rest := expr[1:]
	var token strings.Builder
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if isLiteralTokenByte(c) {
			token.WriteByte(c)
			continue
		}
		// The literal run must end at a token boundary, otherwise the
		// pattern could still match a longer program name.
		if token.Len() == 0 {
			return ""
		}
		if c == '\\' && i+1 < len(rest) {
			switch rest[i+1] {
			case 's', 'b':
				return token.String()
			}
		}
		if c == ' ' || c == '$' {
			return token.String()
		}
		return ""
	}
	return token.String()
}

func isLiteralTokenByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '-' || c == '.' || c == '/':
		return true
	}
	return false
}

// literalRatio is the fraction of pattern bytes that are plain literals.
func literalRatio(expr string) float64 {
	if expr == "" {
		return 0
	}
	literal := 0
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if c == '\\' {
			i++ // escape sequences count as structure, not literals
			continue
		}
		if strings.IndexByte(`.*+?()[]{}|^$`, c) >= 0 {
			continue
		}
		literal++
	}
	return float64(literal) / float64(len(expr))
}

// PrefixIndex maps the command's first token to the candidate rule indices
// whose patterns are anchored to that token. Non-prefixable patterns live in
// a catch-all bucket included in every lookup. The index is built once per
// RuleSet construction.
type PrefixIndex struct {
	byToken  map[string][]int
	catchAll []int
}

// NewPrefixIndex returns an empty index.
func NewPrefixIndex() *PrefixIndex {
	return &PrefixIndex{byToken: make(map[string][]int)}
}

// Add registers a rule index under the pattern's prefix token.
func (ix *PrefixIndex) Add(p *CompiledPattern, ruleIdx int) {
	token := p.PrefixToken()
	if token == "" {
		ix.catchAll = append(ix.catchAll, ruleIdx)
		return
	}
	ix.byToken[token] = append(ix.byToken[token], ruleIdx)
}

// Candidates returns the rule indices worth evaluating for a command whose
// first token is the given string.
func (ix *PrefixIndex) Candidates(firstToken string) []int {
	prefixed := ix.byToken[firstToken]
	if len(prefixed) == 0 {
		return ix.catchAll
	}
	out := make([]int, 0, len(ix.catchAll)+len(prefixed))
	out = append(out, ix.catchAll...)
	out = append(out, prefixed...)
	return out
}

// FirstToken extracts the invoked program token from a command string.
func FirstToken(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
