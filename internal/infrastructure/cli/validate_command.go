package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/cmdguard/internal/app"
	"github.com/doeshing/cmdguard/internal/domain"
)

func newValidateCommand(container *app.Container) *cobra.Command {
	var (
		shellName  string
		strictness string
		format     string
		noAudit    bool
	)

	cmd := &cobra.Command{
		Use:   "validate [command...]",
		Short: "Validate a shell command against the active rule set",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := strings.Join(args, " ")
			shell := resolveShell(shellName)

			svc := container.ValidateService
			if strictness != "" {
				policy, ok := domain.ParseStrictness(strictness)
				if !ok {
					return fmt.Errorf("unknown strictness %q (want permissive, default, or strict)", strictness)
				}
				// Per-invocation strictness never mutates the shared service.
				override := *svc
				override.Strictness = policy
				svc = &override
			}

			result := svc.Validate(cmd.Context(), command, shell)

			if !noAudit {
				if err := container.AuditStore.Record(domain.AuditRecord{
					Timestamp:  time.Now(),
					Command:    command,
					Shell:      shell,
					RiskLevel:  result.RiskLevel,
					Allowed:    result.Allowed,
					Matched:    result.Matched,
					Confidence: result.Confidence,
				}); err != nil {
					container.Logger.Warn("audit write failed", map[string]interface{}{"error": err.Error()})
				}
			}

			if format == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(resultJSON(command, shell, result)); err != nil {
					return err
				}
			} else {
				RenderResult(command, result)
			}

			if !result.Allowed {
				return ErrBlocked
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&shellName, "shell", "s", "", "Shell the command targets (default: $SHELL)")
	cmd.Flags().StringVar(&strictness, "strictness", "", "Blocking policy: permissive, default, strict")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&noAudit, "no-audit", false, "Skip writing this decision to the audit log")

	return cmd
}

func resolveShell(name string) domain.ShellKind {
	if name != "" {
		return domain.ParseShellKind(name)
	}
	if env := os.Getenv("SHELL"); env != "" {
		return domain.ParseShellKind(env)
	}
	return domain.ShellUnknown
}

type validateOutput struct {
	Command     string   `json:"command"`
	Shell       string   `json:"shell"`
	Allowed     bool     `json:"allowed"`
	RiskLevel   string   `json:"risk_level"`
	Explanation string   `json:"explanation"`
	Matched     []string `json:"matched"`
	Confidence  float32  `json:"confidence"`
}

func resultJSON(command string, shell domain.ShellKind, result domain.ValidationResult) validateOutput {
	matched := make([]string, 0, len(result.Matched))
	for _, id := range result.Matched {
		matched = append(matched, string(id))
	}
	return validateOutput{
		Command:     command,
		Shell:       string(shell),
		Allowed:     result.Allowed,
		RiskLevel:   string(result.RiskLevel),
		Explanation: result.Explanation,
		Matched:     matched,
		Confidence:  result.Confidence,
	}
}
