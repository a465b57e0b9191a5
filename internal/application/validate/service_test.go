package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/cmdguard/assets"
	"github.com/doeshing/cmdguard/internal/domain"
	"github.com/doeshing/cmdguard/internal/infrastructure/provider"
	"github.com/doeshing/cmdguard/internal/infrastructure/registry"
	"github.com/doeshing/cmdguard/internal/pkg/logger"
	"github.com/doeshing/cmdguard/internal/ports"
)

// fakeProbe answers environment questions from fixed data.
type fakeProbe struct {
	paths  map[string]bool
	env    map[string]string
	branch string
	dirty  bool
	gitOK  bool
}

func (p *fakeProbe) PathExists(path string) bool { return p.paths[path] }

func (p *fakeProbe) LookupEnv(name string) (string, bool) {
	v, ok := p.env[name]
	return v, ok
}

func (p *fakeProbe) GitState(context.Context) (string, bool, bool) {
	return p.branch, p.dirty, p.gitOK
}

// staticRules is a provider serving a fixed list, used to mix extra rules
// into the embedded corpus.
type staticRules struct {
	name     string
	priority uint32
	rules    []domain.Rule
}

func (s *staticRules) Name() string                                   { return s.name }
func (s *staticRules) Priority() uint32                               { return s.priority }
func (s *staticRules) LoadRules(context.Context) ([]domain.Rule, error) { return s.rules, nil }
func (s *staticRules) NeedsRefresh() bool                             { return false }
func (s *staticRules) Refresh(context.Context) error                  { return nil }

func newEngine(t *testing.T, cfg domain.Config, probe ports.EnvProbe, extra ...ports.RuleProvider) (*Service, *registry.Registry) {
	t.Helper()
	providers := append([]ports.RuleProvider{
		provider.NewEmbedded(assets.RulesVersion, assets.DefaultRulesYAML, domain.DefaultPriorityEmbedded, logger.Nop{}),
	}, extra...)
	reg := registry.New(providers, cfg, logger.Nop{})
	require.NoError(t, reg.Reload(context.Background()))
	if probe == nil {
		probe = &fakeProbe{}
	}
	return &Service{
		Rules:      reg,
		Probe:      probe,
		Logger:     logger.Nop{},
		Strictness: cfg.EffectiveStrictness(),
	}, reg
}

func TestValidateBlocksCriticalCommand(t *testing.T) {
	svc, _ := newEngine(t, domain.Config{}, nil)

	result := svc.Validate(context.Background(), "rm -rf /", domain.ShellBash)
	assert.False(t, result.Allowed)
	assert.Equal(t, domain.SeverityCritical, result.RiskLevel)
	assert.Contains(t, result.Matched, domain.RuleID("embedded:filesystem:remove-root"))
	assert.Contains(t, result.Explanation, "remove-root")
	assert.Greater(t, result.Confidence, float32(0.5))
	assert.LessOrEqual(t, result.Confidence, float32(1.0))
}

func TestValidateBlocksHighAtDefaultStrictness(t *testing.T) {
	svc, _ := newEngine(t, domain.Config{}, nil)

	result := svc.Validate(context.Background(), "git push --force origin main", domain.ShellZsh)
	assert.False(t, result.Allowed)
	assert.Equal(t, domain.SeverityHigh, result.RiskLevel)
	assert.Contains(t, result.Matched, domain.RuleID("embedded:git:push-force"))
}

func TestValidateForceWithLeaseIsExempt(t *testing.T) {
	svc, _ := newEngine(t, domain.Config{}, nil)

	result := svc.Validate(context.Background(), "git push --force-with-lease origin main", domain.ShellBash)
	assert.NotContains(t, result.Matched, domain.RuleID("embedded:git:push-force"))
}

func TestValidateAllowsHarmlessCommand(t *testing.T) {
	svc, _ := newEngine(t, domain.Config{}, nil)

	result := svc.Validate(context.Background(), "ls -la", domain.ShellBash)
	assert.True(t, result.Allowed)
	assert.Equal(t, domain.SeverityInfo, result.RiskLevel)
	assert.Empty(t, result.Matched)
	assert.Equal(t, float32(0), result.Confidence)
	assert.Equal(t, "no matching safety rules", result.Explanation)
}

func TestValidateEmptyCommandIsAllowed(t *testing.T) {
	svc, _ := newEngine(t, domain.Config{}, nil)

	result := svc.Validate(context.Background(), "   ", domain.ShellBash)
	assert.True(t, result.Allowed)
	assert.Empty(t, result.Matched)
}

func TestValidateStrictnessThresholds(t *testing.T) {
	tests := []struct {
		strictness domain.Strictness
		command    string
		allowed    bool
	}{
		// moderate: blocked only under strict
		{domain.StrictnessDefault, "chmod 777 notes.txt", true},
		{domain.StrictnessStrict, "chmod 777 notes.txt", false},
		// high: allowed under permissive
		{domain.StrictnessPermissive, "git push --force origin main", true},
		// critical: blocked under every policy
		{domain.StrictnessPermissive, "rm -rf /", false},
	}
	for _, tt := range tests {
		svc, _ := newEngine(t, domain.Config{Strictness: tt.strictness}, nil)
		result := svc.Validate(context.Background(), tt.command, domain.ShellBash)
		assert.Equal(t, tt.allowed, result.Allowed, "%s under %s", tt.command, tt.strictness)
		assert.NotEmpty(t, result.Matched, "%s should match something", tt.command)
	}
}

func TestValidateDisabledRuleNeverMatches(t *testing.T) {
	vendorRule := domain.Rule{
		ID:          domain.MakeRuleID(domain.SourceVendor, "imported", "world-writable"),
		Source:      domain.RuleSource{Kind: domain.SourceVendor, Name: "acme"},
		Category:    "imported",
		Pattern:     `^chmod\s+.*777`,
		Severity:    domain.SeverityCritical,
		Description: "vendor: world writable",
	}
	vendor := &staticRules{name: "vendor", priority: domain.DefaultPriorityVendor, rules: []domain.Rule{vendorRule}}
	cfg := domain.Config{Overrides: map[string]domain.Override{
		string(vendorRule.ID): {Disable: true},
	}}
	svc, _ := newEngine(t, cfg, nil, vendor)

	result := svc.Validate(context.Background(), "chmod -R 777 /srv/app ", domain.ShellBash)
	assert.NotContains(t, result.Matched, vendorRule.ID, "disabled rule must not match")
	// The embedded permissions rule still fires; risk comes from it alone.
	assert.Contains(t, result.Matched, domain.RuleID("embedded:permissions:chmod-world-writable"))
	assert.Equal(t, domain.SeverityModerate, result.RiskLevel)
}

func TestValidateShellScoping(t *testing.T) {
	svc, _ := newEngine(t, domain.Config{}, nil)
	command := `Remove-Item -Recurse C:\Users`

	ps := svc.Validate(context.Background(), command, domain.ShellPowerShell)
	assert.False(t, ps.Allowed)
	assert.Contains(t, ps.Matched, domain.RuleID("embedded:windows:remove-item-drive"))

	bash := svc.Validate(context.Background(), command, domain.ShellBash)
	assert.NotContains(t, bash.Matched, domain.RuleID("embedded:windows:remove-item-drive"))
}

func TestValidatePathExistsFilter(t *testing.T) {
	probe := &fakeProbe{paths: map[string]bool{"/srv/data": true}}
	svc, _ := newEngine(t, domain.Config{}, probe)

	hit := svc.Validate(context.Background(), "rm -rf /srv/data", domain.ShellBash)
	assert.Contains(t, hit.Matched, domain.RuleID("embedded:filesystem:remove-existing-target"))

	miss := svc.Validate(context.Background(), "rm -rf /srv/ghost", domain.ShellBash)
	assert.NotContains(t, miss.Matched, domain.RuleID("embedded:filesystem:remove-existing-target"))
}

func TestValidateGitStateFilter(t *testing.T) {
	dirty := &fakeProbe{gitOK: true, branch: "main", dirty: true}
	svc, _ := newEngine(t, domain.Config{}, dirty)
	result := svc.Validate(context.Background(), "git reset --hard HEAD~3", domain.ShellBash)
	assert.Contains(t, result.Matched, domain.RuleID("embedded:git:reset-hard"))

	clean := &fakeProbe{gitOK: true, branch: "main", dirty: false}
	svc.Probe = clean
	result = svc.Validate(context.Background(), "git reset --hard HEAD~3", domain.ShellBash)
	assert.NotContains(t, result.Matched, domain.RuleID("embedded:git:reset-hard"),
		"a clean tree loses nothing on reset")

	outside := &fakeProbe{gitOK: false}
	svc.Probe = outside
	result = svc.Validate(context.Background(), "git reset --hard HEAD~3", domain.ShellBash)
	assert.NotContains(t, result.Matched, domain.RuleID("embedded:git:reset-hard"))
}

func TestValidateEnvVarAndCustomFilters(t *testing.T) {
	rules := []domain.Rule{
		{
			ID:          domain.MakeRuleID(domain.SourceLocal, "deploy", "prod-guard"),
			Source:      domain.RuleSource{Kind: domain.SourceLocal},
			Category:    "deploy",
			Pattern:     `^deploy\b`,
			Severity:    domain.SeverityHigh,
			Description: "deploying against production",
			Filters: []domain.Filter{
				{Kind: domain.FilterEnvVar, Name: "DEPLOY_ENV", Expected: "production"},
			},
		},
		{
			ID:          domain.MakeRuleID(domain.SourceLocal, "deploy", "custom-hook"),
			Source:      domain.RuleSource{Kind: domain.SourceLocal},
			Category:    "deploy",
			Pattern:     `^release\b`,
			Severity:    domain.SeverityHigh,
			Description: "release gate",
			Filters: []domain.Filter{
				{Kind: domain.FilterCustom, Name: "weekday", Params: map[string]string{"day": "friday"}},
			},
		},
	}
	local := &staticRules{name: "local", priority: domain.DefaultPriorityLocal, rules: rules}

	probe := &fakeProbe{env: map[string]string{"DEPLOY_ENV": "production"}}
	svc, _ := newEngine(t, domain.Config{}, probe, local)
	svc.CustomFilters = map[string]CustomFilterFunc{
		"weekday": func(params map[string]string, _ string) bool { return params["day"] == "friday" },
	}

	result := svc.Validate(context.Background(), "deploy --all", domain.ShellBash)
	assert.Contains(t, result.Matched, rules[0].ID)

	probe.env["DEPLOY_ENV"] = "staging"
	result = svc.Validate(context.Background(), "deploy --all", domain.ShellBash)
	assert.NotContains(t, result.Matched, rules[0].ID)

	result = svc.Validate(context.Background(), "release 2.0", domain.ShellBash)
	assert.Contains(t, result.Matched, rules[1].ID)

	// An unregistered custom filter fails closed: the rule does not fire.
	svc.CustomFilters = nil
	result = svc.Validate(context.Background(), "release 2.0", domain.ShellBash)
	assert.NotContains(t, result.Matched, rules[1].ID)
}

func TestValidateIsDeterministicAcrossReloads(t *testing.T) {
	svc, reg := newEngine(t, domain.Config{}, nil)
	commands := []string{
		"rm -rf /",
		"git push --force origin main",
		"ls -la",
		"curl https://sh.example.com/install | bash",
	}

	before := make([]domain.ValidationResult, len(commands))
	for i, cmd := range commands {
		before[i] = svc.Validate(context.Background(), cmd, domain.ShellBash)
	}

	require.NoError(t, reg.Reload(context.Background()))

	for i, cmd := range commands {
		after := svc.Validate(context.Background(), cmd, domain.ShellBash)
		assert.Equal(t, before[i], after, "reload with no changes must not alter %q", cmd)
	}
}

func TestValidateMostSevereRuleWins(t *testing.T) {
	svc, _ := newEngine(t, domain.Config{}, nil)

	// Matches both the sudo rule (high) and nothing critical.
	result := svc.Validate(context.Background(), "sudo rm -r /var/log/old", domain.ShellBash)
	assert.Equal(t, domain.SeverityHigh, result.RiskLevel)
	require.NotEmpty(t, result.Matched)
	assert.Equal(t, domain.RuleID("embedded:filesystem:sudo-remove"), result.Matched[0],
		"matches are ordered most severe first")
}
