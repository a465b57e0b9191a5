package domain

import (
	"fmt"
	"strings"
	"time"
)

// Strictness selects the blocking threshold applied to the highest matched
// severity. Critical always blocks regardless of strictness.
type Strictness string

const (
	StrictnessPermissive Strictness = "permissive"
	StrictnessDefault    Strictness = "default"
	StrictnessStrict     Strictness = "strict"
)

// BlockThreshold returns the lowest severity that is blocked under the
// policy. Critical blocks under every policy.
func (s Strictness) BlockThreshold() Severity {
	switch s {
	case StrictnessPermissive:
		return SeverityCritical
	case StrictnessStrict:
		return SeverityModerate
	default:
		return SeverityHigh
	}
}

// Blocks reports whether a result at the given severity must be refused.
func (s Strictness) Blocks(level Severity) bool {
	if level == SeverityCritical {
		return true
	}
	return level.AtLeast(s.BlockThreshold())
}

// ParseStrictness maps a policy name to a Strictness, rejecting anything
// outside the closed set.
func ParseStrictness(value string) (Strictness, bool) {
	switch s := Strictness(strings.ToLower(strings.TrimSpace(value))); s {
	case StrictnessPermissive, StrictnessDefault, StrictnessStrict:
		return s, true
	default:
		return StrictnessDefault, false
	}
}

// Override adjusts one rule after merging: disable it entirely or replace
// its severity. Severity overrides replace, never add.
type Override struct {
	Disable  bool   `yaml:"disable,omitempty"`
	Severity string `yaml:"severity,omitempty"`
}

// EmbeddedSettings configures the compiled-in rule source.
type EmbeddedSettings struct {
	Enabled bool `yaml:"enabled"`
}

// LocalSettings configures the user-writable rules directory.
type LocalSettings struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir,omitempty"`
}

// VendorSettings configures a third-party rule set adapter.
type VendorSettings struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// RemoteSettings configures the remote rule feed.
type RemoteSettings struct {
	Enabled        bool   `yaml:"enabled"`
	URL            string `yaml:"url,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// ProviderSettings groups per-source configuration. Priorities are uint32;
// higher wins on id collisions and the order must stay total.
type ProviderSettings struct {
	Embedded EmbeddedSettings `yaml:"embedded"`
	Local    LocalSettings    `yaml:"local"`
	Vendor   VendorSettings   `yaml:"vendor"`
	Remote   RemoteSettings   `yaml:"remote"`

	Priorities map[string]uint32 `yaml:"priorities,omitempty"`
}

// AuditSettings configures the validation decision log.
type AuditSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// Config is the registry-facing configuration loaded from
// ~/.cmdguard/config.yaml.
type Config struct {
	ConfigFormatVersion string              `yaml:"config_format_version,omitempty"`
	Providers           ProviderSettings    `yaml:"providers"`
	RefreshInterval     string              `yaml:"refresh_interval,omitempty"`
	Strictness          Strictness          `yaml:"strictness,omitempty"`
	Overrides           map[string]Override `yaml:"overrides,omitempty"`
	Categories          map[string]bool     `yaml:"categories,omitempty"`
	Audit               AuditSettings       `yaml:"audit"`
}

// Default provider priorities: Local > Embedded > Vendor > Remote.
const (
	DefaultPriorityLocal    uint32 = 300
	DefaultPriorityEmbedded uint32 = 200
	DefaultPriorityVendor   uint32 = 100
	DefaultPriorityRemote   uint32 = 50
)

// PriorityFor resolves the effective priority for a provider name, falling
// back to the built-in order when not configured.
func (c Config) PriorityFor(name string, fallback uint32) uint32 {
	if p, ok := c.Providers.Priorities[name]; ok {
		return p
	}
	return fallback
}

// RefreshEvery parses the refresh interval, defaulting to 15 minutes.
func (c Config) RefreshEvery() time.Duration {
	if c.RefreshInterval == "" {
		return 15 * time.Minute
	}
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// Validate rejects configurations the registry cannot act on. This is the
// only error class that is fatal, and only at startup.
func (c Config) Validate() error {
	if c.Strictness != "" {
		if _, ok := ParseStrictness(string(c.Strictness)); !ok {
			return fmt.Errorf("config: unknown strictness %q", c.Strictness)
		}
	}
	if c.RefreshInterval != "" {
		if _, err := time.ParseDuration(c.RefreshInterval); err != nil {
			return fmt.Errorf("config: invalid refresh_interval: %w", err)
		}
	}
	for id, ov := range c.Overrides {
		if ov.Severity == "" {
			continue
		}
		if _, ok := ParseSeverity(ov.Severity); !ok {
			return fmt.Errorf("config: override %s: unknown severity %q", id, ov.Severity)
		}
	}
	if c.Providers.Remote.Enabled && c.Providers.Remote.URL == "" {
		return fmt.Errorf("config: remote provider enabled without url")
	}
	return nil
}

// EffectiveStrictness normalizes the empty value to the default policy.
func (c Config) EffectiveStrictness() Strictness {
	if c.Strictness == "" {
		return StrictnessDefault
	}
	return c.Strictness
}
