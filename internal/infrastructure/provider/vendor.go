package provider

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/cmdguard/internal/domain"
	"github.com/doeshing/cmdguard/internal/pkg/pattern"
	"github.com/doeshing/cmdguard/internal/ports"
)

// VendorAdapter translates a third-party guardrail rule set into the
// canonical rule model. The foreign schema (a flat danger-pattern list with
// level/message/action fields) never leaks past this file.
type VendorAdapter struct {
	name     string
	path     string
	priority uint32
	log      ports.Logger

	modTime int64
}

// vendorDocument mirrors the community guardrail.yaml schema.
type vendorDocument struct {
	Version string `yaml:"version,omitempty"`
	Rules   struct {
		DangerPatterns []vendorPattern `yaml:"danger_patterns"`
	} `yaml:"rules"`
}

type vendorPattern struct {
	Pattern string `yaml:"pattern"`
	Level   string `yaml:"level"`
	Message string `yaml:"message"`
	Action  string `yaml:"action"` // ignored: blocking is threshold-driven here
}

// NewVendorAdapter reads the vendor rule file at path.
func NewVendorAdapter(name, path string, priority uint32, log ports.Logger) *VendorAdapter {
	if name == "" {
		name = "vendor"
	}
	return &VendorAdapter{name: name, path: expandPath(path), priority: priority, log: log}
}

func (v *VendorAdapter) Name() string     { return v.name }
func (v *VendorAdapter) Priority() uint32 { return v.priority }

func (v *VendorAdapter) LoadRules(ctx context.Context) ([]domain.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(v.name, err)
	}
	data, err := os.ReadFile(v.path)
	if err != nil {
		return nil, unavailable(v.name, err)
	}
	var doc vendorDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, parseFailed(v.name, err)
	}

	source := domain.RuleSource{Kind: domain.SourceVendor, Name: v.name, Version: doc.Version}
	seen := map[domain.RuleID]int{}
	var rules []domain.Rule
	for _, vp := range doc.Rules.DangerPatterns {
		if vp.Pattern == "" {
			continue
		}
		if _, err := pattern.Compile(vp.Pattern); err != nil {
			v.log.Warn("vendor rule skipped", map[string]interface{}{"vendor": v.name, "error": err.Error()})
			continue
		}
		severity, ok := domain.ParseSeverity(vp.Level)
		if !ok {
			severity = domain.SeverityModerate
		}
		name := slug(vp.Message)
		if name == "" {
			name = fmt.Sprintf("pattern-%d", len(rules)+1)
		}
		id := domain.MakeRuleID(domain.SourceVendor, "imported", name)
		if n := seen[id]; n > 0 {
			id = domain.MakeRuleID(domain.SourceVendor, "imported", fmt.Sprintf("%s-%d", name, n+1))
		}
		seen[domain.MakeRuleID(domain.SourceVendor, "imported", name)]++

		rules = append(rules, domain.Rule{
			ID:          id,
			Source:      source,
			Category:    "imported",
			Pattern:     vp.Pattern,
			Severity:    severity,
			Description: vp.Message,
			Metadata:    domain.Metadata{Author: v.name, Version: doc.Version},
		})
	}
	if info, err := os.Stat(v.path); err == nil {
		v.modTime = info.ModTime().UnixNano()
	}
	return rules, nil
}

func (v *VendorAdapter) NeedsRefresh() bool {
	info, err := os.Stat(v.path)
	if err != nil {
		return !errors.Is(err, fs.ErrNotExist) || v.modTime != 0
	}
	return info.ModTime().UnixNano() != v.modTime
}

func (v *VendorAdapter) Refresh(context.Context) error {
	info, err := os.Stat(v.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			v.modTime = 0
			return nil
		}
		return unavailable(v.name, err)
	}
	v.modTime = info.ModTime().UnixNano()
	return nil
}

// slug turns a human message into a stable rule name.
func slug(message string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(message) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

var _ ports.RuleProvider = (*VendorAdapter)(nil)
