package ruleformat

import (
	"bytes"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/cmdguard/internal/domain"
)

// MarshalRules renders rules back into the declarative file format, one YAML
// document per rule. Parsing the output yields semantically equal rules.
func MarshalRules(rules []domain.Rule) ([]byte, error) {
	var buf bytes.Buffer
	for i, rule := range rules {
		if i > 0 {
			buf.WriteString("---\n")
		}
		raw, err := yaml.Marshal(toDoc(rule))
		if err != nil {
			return nil, err
		}
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

func toDoc(rule domain.Rule) ruleDoc {
	doc := ruleDoc{
		ID:          ruleName(rule.ID),
		Category:    rule.Category,
		Pattern:     rule.Pattern,
		Severity:    string(rule.Severity),
		Description: rule.Description,
		Author:      rule.Metadata.Author,
		Version:     rule.Metadata.Version,
	}
	if !rule.Metadata.Updated.IsZero() {
		doc.Updated = rule.Metadata.Updated.Format(time.RFC3339)
	}
	for _, s := range rule.Shells {
		doc.Shells = append(doc.Shells, string(s))
	}
	for _, f := range rule.Filters {
		doc.Filters = append(doc.Filters, filterDoc{
			Type:     string(f.Kind),
			Capture:  f.Capture,
			Value:    f.Value,
			Name:     f.Name,
			Expected: f.Expected,
			Branch:   f.Branch,
			Dirty:    f.Dirty,
			Params:   f.Params,
		})
	}
	return doc
}

// ruleName strips the source and category segments from a full rule id,
// recovering the file-local name.
func ruleName(id domain.RuleID) string {
	s := string(id)
	for i := 0; i < 2; i++ {
		if idx := strings.IndexByte(s, ':'); idx >= 0 {
			s = s[idx+1:]
		}
	}
	return s
}
