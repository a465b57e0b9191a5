package domain

// FilterKind tags the variant of a contextual filter. The set is closed;
// every consumer switches exhaustively over it.
type FilterKind string

const (
	FilterPathExists  FilterKind = "path_exists"
	FilterContains    FilterKind = "contains"
	FilterNotContains FilterKind = "not_contains"
	FilterEnvVar      FilterKind = "env_var"
	FilterGitState    FilterKind = "git_state"
	FilterCustom      FilterKind = "custom"
)

// Filter is a contextual predicate attached to a rule. It is evaluated
// against the command and the live environment only after the rule's
// pattern already matched, so the non-matching path stays cheap.
//
// Which fields are meaningful depends on Kind:
//   - path_exists: Capture (regex capture group holding a path)
//   - contains / not_contains: Value (literal substring of the command)
//   - env_var: Name, Expected (empty Expected means "set to anything")
//   - git_state: Branch (empty = any), Dirty (nil = either)
//   - custom: Name, Params (source-specific extension point)
type Filter struct {
	Kind     FilterKind
	Capture  int
	Value    string
	Name     string
	Expected string
	Branch   string
	Dirty    *bool
	Params   map[string]string
}
