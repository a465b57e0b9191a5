package assets

import (
	_ "embed"
)

// RulesVersion identifies the embedded rule corpus revision.
const RulesVersion = "2026.08"

// DefaultRulesYAML contains the embedded builtin safety rules.
//
//go:embed defaults/rules.yaml
var DefaultRulesYAML []byte

// DefaultConfigYAML contains the embedded default configuration.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte
