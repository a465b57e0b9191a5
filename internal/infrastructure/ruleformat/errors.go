package ruleformat

import "fmt"

// SyntaxError reports YAML that could not be decoded at all.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("rule file: syntax error at line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("rule file: syntax error: %s", e.Msg)
}

// InvalidPatternError reports a rule whose regex failed to compile. The rule
// is skipped; the rest of the file still loads.
type InvalidPatternError struct {
	ID    string
	Cause error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("rule %s: invalid pattern: %v", e.ID, e.Cause)
}

func (e *InvalidPatternError) Unwrap() error { return e.Cause }

// MissingFieldError reports a rule entry lacking a required field.
type MissingFieldError struct {
	ID    string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("rule %s: missing field %q", e.ID, e.Field)
}

// DuplicateIDError reports two rules with the same id inside one file.
// Cross-provider duplicates are a registry concern, not a parser concern.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("rule %s: duplicate id within file", e.ID)
}
