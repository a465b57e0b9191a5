package domain

import (
	"fmt"
	"time"
)

// SourceKind identifies the provenance class of a rule.
type SourceKind string

const (
	SourceEmbedded SourceKind = "embedded"
	SourceLocal    SourceKind = "local"
	SourceVendor   SourceKind = "vendor"
	SourceRemote   SourceKind = "remote"
)

// RuleSource records where a rule came from. Kind is always set; the
// remaining fields depend on the kind (version for embedded and vendor,
// path for local, origin and fetch time for remote).
type RuleSource struct {
	Kind      SourceKind
	Version   string
	Path      string
	Name      string
	Origin    string
	FetchedAt time.Time
}

func (s RuleSource) String() string {
	switch s.Kind {
	case SourceEmbedded:
		if s.Version != "" {
			return fmt.Sprintf("embedded@%s", s.Version)
		}
		return "embedded"
	case SourceLocal:
		if s.Path != "" {
			return fmt.Sprintf("local(%s)", s.Path)
		}
		return "local"
	case SourceVendor:
		if s.Name != "" {
			return fmt.Sprintf("vendor:%s", s.Name)
		}
		return "vendor"
	case SourceRemote:
		if s.Origin != "" {
			return fmt.Sprintf("remote(%s)", s.Origin)
		}
		return "remote"
	default:
		return string(s.Kind)
	}
}
