package domain

// ValidationResult is the outcome of validating one command. Created fresh
// per call and owned by the caller.
type ValidationResult struct {
	Allowed     bool
	RiskLevel   Severity
	Explanation string
	Matched     []RuleID
	Confidence  float32
}
