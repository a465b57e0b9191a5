// Package ruleformat parses and serializes the declarative rule file
// format. One file holds one or more rules as a stream of YAML documents.
// Parsing is pure: callers feed in text, no filesystem access happens here.
package ruleformat

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/cmdguard/internal/domain"
	"github.com/doeshing/cmdguard/internal/pkg/pattern"
)

// ruleDoc is the on-disk shape of a single rule document.
type ruleDoc struct {
	ID          string      `yaml:"id"`
	Category    string      `yaml:"category"`
	Pattern     string      `yaml:"pattern"`
	Severity    string      `yaml:"severity"`
	Description string      `yaml:"description"`
	Shells      []string    `yaml:"shells,omitempty"`
	Filters     []filterDoc `yaml:"filters,omitempty"`
	Author      string      `yaml:"author,omitempty"`
	Version     string      `yaml:"version,omitempty"`
	Updated     string      `yaml:"updated,omitempty"`
}

type filterDoc struct {
	Type     string            `yaml:"type"`
	Capture  int               `yaml:"capture,omitempty"`
	Value    string            `yaml:"value,omitempty"`
	Name     string            `yaml:"name,omitempty"`
	Expected string            `yaml:"expected,omitempty"`
	Branch   string            `yaml:"branch,omitempty"`
	Dirty    *bool             `yaml:"dirty,omitempty"`
	Params   map[string]string `yaml:"params,omitempty"`
}

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// ParseRules decodes a rule file. Each malformed entry is reported
// individually; one bad rule never blocks the rest of the file. Documents are
// split on `---` separators and decoded one by one, so even a lexically
// broken document only costs itself. The returned errors are SyntaxError,
// InvalidPatternError, MissingFieldError, or DuplicateIDError values.
func ParseRules(text string, source domain.RuleSource) ([]domain.Rule, []error) {
	var (
		rules []domain.Rule
		errs  []error
		seen  = map[domain.RuleID]bool{}
	)
	for _, chunk := range splitDocuments(text) {
		var doc ruleDoc
		if err := yaml.Unmarshal([]byte(chunk.text), &doc); err != nil {
			line := yamlErrorLine(err)
			if line > 0 {
				line += chunk.line - 1
			}
			errs = append(errs, &SyntaxError{Line: line, Msg: err.Error()})
			continue
		}
		rule, err := doc.toRule(source)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[rule.ID] {
			errs = append(errs, &DuplicateIDError{ID: string(rule.ID)})
			continue
		}
		seen[rule.ID] = true
		rules = append(rules, rule)
	}
	return rules, errs
}

// docChunk is one YAML document plus the 1-based file line it starts at, so
// syntax errors can report file-relative positions.
type docChunk struct {
	text string
	line int
}

// splitDocuments cuts the file at `---` separator lines. Whitespace-only
// segments (leading separators, trailing newlines) are dropped.
func splitDocuments(text string) []docChunk {
	lines := strings.Split(text, "\n")
	var chunks []docChunk
	start := 0
	flush := func(end int) {
		seg := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(seg) != "" {
			chunks = append(chunks, docChunk{text: seg, line: start + 1})
		}
	}
	for i, ln := range lines {
		if strings.TrimSpace(ln) == "---" {
			flush(i)
			start = i + 1
		}
	}
	flush(len(lines))
	return chunks
}

func (d ruleDoc) toRule(source domain.RuleSource) (domain.Rule, error) {
	switch {
	case d.ID == "":
		return domain.Rule{}, &MissingFieldError{ID: "(unnamed)", Field: "id"}
	case d.Pattern == "":
		return domain.Rule{}, &MissingFieldError{ID: d.ID, Field: "pattern"}
	case d.Severity == "":
		return domain.Rule{}, &MissingFieldError{ID: d.ID, Field: "severity"}
	case d.Description == "":
		return domain.Rule{}, &MissingFieldError{ID: d.ID, Field: "description"}
	}
	category := d.Category
	if category == "" {
		category = "general"
	}
	id := domain.MakeRuleID(source.Kind, category, d.ID)

	severity, ok := domain.ParseSeverity(d.Severity)
	if !ok {
		return domain.Rule{}, &MissingFieldError{ID: d.ID, Field: "severity"}
	}
	// A rule whose pattern does not compile is rejected here, at load time,
	// so the registry only ever sees compilable rules.
	if _, err := pattern.Compile(d.Pattern); err != nil {
		return domain.Rule{}, &InvalidPatternError{ID: d.ID, Cause: err}
	}

	var shells []domain.ShellKind
	for _, s := range d.Shells {
		if kind := domain.ParseShellKind(s); kind != domain.ShellUnknown {
			shells = append(shells, kind)
		}
	}

	filters := make([]domain.Filter, 0, len(d.Filters))
	for _, f := range d.Filters {
		filters = append(filters, f.toFilter())
	}
	if len(filters) == 0 {
		filters = nil
	}

	return domain.Rule{
		ID:          id,
		Source:      source,
		Category:    category,
		Pattern:     d.Pattern,
		Shells:      shells,
		Severity:    severity,
		Description: d.Description,
		Filters:     filters,
		Metadata: domain.Metadata{
			Author:  d.Author,
			Version: d.Version,
			Updated: parseUpdated(d.Updated),
		},
	}, nil
}

func (f filterDoc) toFilter() domain.Filter {
	return domain.Filter{
		Kind:     domain.FilterKind(strings.ToLower(f.Type)),
		Capture:  f.Capture,
		Value:    f.Value,
		Name:     f.Name,
		Expected: f.Expected,
		Branch:   f.Branch,
		Dirty:    f.Dirty,
		Params:   f.Params,
	}
}

func parseUpdated(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func yamlErrorLine(err error) int {
	m := yamlLineRe.FindStringSubmatch(err.Error())
	if len(m) != 2 {
		return 0
	}
	n, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return 0
	}
	return n
}
