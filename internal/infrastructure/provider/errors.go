// Package provider implements the concrete rule sources behind the
// ports.RuleProvider interface: embedded, local directory, vendor adapter,
// and remote feed. All provider failures are non-fatal; the registry logs
// them and continues with whatever sources succeeded.
package provider

import "fmt"

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	ErrUnavailable ErrorKind = "unavailable"
	ErrParseFailed ErrorKind = "parse_failed"
	ErrTimeout     ErrorKind = "timeout"
)

// Error wraps a provider failure with its origin and class.
type Error struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure class, or "" for non-provider errors.
func KindOf(err error) ErrorKind {
	if pe, ok := err.(*Error); ok {
		return pe.Kind
	}
	return ""
}

func unavailable(name string, err error) *Error {
	return &Error{Provider: name, Kind: ErrUnavailable, Err: err}
}

func parseFailed(name string, err error) *Error {
	return &Error{Provider: name, Kind: ErrParseFailed, Err: err}
}

func timeout(name string, err error) *Error {
	return &Error{Provider: name, Kind: ErrTimeout, Err: err}
}
