package domain

import "time"

// AuditRecord captures one validation decision for the audit log.
type AuditRecord struct {
	ID         string
	Timestamp  time.Time
	Command    string
	Shell      ShellKind
	RiskLevel  Severity
	Allowed    bool
	Matched    []RuleID
	Confidence float32
}
