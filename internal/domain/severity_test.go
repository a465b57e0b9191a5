package domain

import "testing"

func TestSeverityTotalOrder(t *testing.T) {
	levels := Severities()
	for i := 1; i < len(levels); i++ {
		if !MoreSevere(levels[i], levels[i-1]) {
			t.Fatalf("expected %s to outrank %s", levels[i], levels[i-1])
		}
	}
	if !SeverityCritical.AtLeast(SeverityInfo) {
		t.Fatal("critical must be at least info")
	}
	if SeverityLow.AtLeast(SeverityHigh) {
		t.Fatal("low must not be at least high")
	}
}

func TestParseSeverityAliases(t *testing.T) {
	tests := []struct {
		input string
		want  Severity
		ok    bool
	}{
		{"critical", SeverityCritical, true},
		{"HIGH", SeverityHigh, true},
		{"moderate", SeverityModerate, true},
		{"medium", SeverityModerate, true},
		{"safe", SeverityInfo, true},
		{"  low ", SeverityLow, true},
		{"extreme", SeverityInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseSeverity(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ParseSeverity(%q) = %s,%v want %s,%v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStrictnessThresholds(t *testing.T) {
	tests := []struct {
		policy Strictness
		level  Severity
		blocks bool
	}{
		{StrictnessDefault, SeverityCritical, true},
		{StrictnessDefault, SeverityHigh, true},
		{StrictnessDefault, SeverityModerate, false},
		{StrictnessStrict, SeverityModerate, true},
		{StrictnessStrict, SeverityLow, false},
		{StrictnessPermissive, SeverityHigh, false},
		{StrictnessPermissive, SeverityCritical, true},
	}
	for _, tt := range tests {
		if got := tt.policy.Blocks(tt.level); got != tt.blocks {
			t.Fatalf("%s.Blocks(%s) = %v want %v", tt.policy, tt.level, got, tt.blocks)
		}
	}
}

func TestParseStrictness(t *testing.T) {
	tests := []struct {
		input string
		want  Strictness
		ok    bool
	}{
		{"permissive", StrictnessPermissive, true},
		{"default", StrictnessDefault, true},
		{"STRICT", StrictnessStrict, true},
		{" strict ", StrictnessStrict, true},
		{"stric", StrictnessDefault, false},
		{"paranoid", StrictnessDefault, false},
		{"", StrictnessDefault, false},
	}
	for _, tt := range tests {
		got, ok := ParseStrictness(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ParseStrictness(%q) = %s,%v want %s,%v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRuleAppliesTo(t *testing.T) {
	unscoped := Rule{}
	if !unscoped.AppliesTo(ShellFish) {
		t.Fatal("rule without shell scope must apply everywhere")
	}
	scoped := Rule{Shells: []ShellKind{ShellBash, ShellZsh}}
	if !scoped.AppliesTo(ShellBash) || scoped.AppliesTo(ShellPowerShell) {
		t.Fatal("shell scope not honored")
	}
}
