package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/doeshing/cmdguard/internal/app"
	"github.com/doeshing/cmdguard/internal/domain"
)

func newListRulesCommand(container *app.Container) *cobra.Command {
	var (
		category string
		format   string
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "list-rules",
		Short: "List the rules in the active rule set",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot := container.Registry.Snapshot()
			rules := snapshot.Rules()

			filtered := make([]domain.ActiveRule, 0, len(rules))
			for _, ar := range rules {
				if category != "" && ar.Rule.Category != category {
					continue
				}
				if ar.Disabled && !all {
					continue
				}
				filtered = append(filtered, ar)
			}
			sort.Slice(filtered, func(i, j int) bool {
				if filtered[i].Rule.Severity != filtered[j].Rule.Severity {
					return domain.MoreSevere(filtered[i].Rule.Severity, filtered[j].Rule.Severity)
				}
				return filtered[i].Rule.ID < filtered[j].Rule.ID
			})

			if format == "json" {
				return renderRulesJSON(filtered)
			}
			renderRulesText(filtered)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Only show rules in this category")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include disabled rules")

	return cmd
}

type ruleOutput struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Pattern     string   `json:"pattern"`
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
	Source      string   `json:"source"`
	Shells      []string `json:"shells,omitempty"`
	Filters     int      `json:"filters,omitempty"`
	Disabled    bool     `json:"disabled,omitempty"`
}

func renderRulesJSON(rules []domain.ActiveRule) error {
	out := make([]ruleOutput, 0, len(rules))
	for _, ar := range rules {
		var shells []string
		for _, s := range ar.Rule.Shells {
			shells = append(shells, string(s))
		}
		out = append(out, ruleOutput{
			ID:          string(ar.Rule.ID),
			Category:    ar.Rule.Category,
			Pattern:     ar.Rule.Pattern,
			Severity:    string(ar.Rule.Severity),
			Description: ar.Rule.Description,
			Source:      ar.Rule.Source.String(),
			Shells:      shells,
			Filters:     len(ar.Rule.Filters),
			Disabled:    ar.Disabled,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderRulesText(rules []domain.ActiveRule) {
	if len(rules) == 0 {
		fmt.Println("No rules match the filter.")
		return
	}
	for _, ar := range rules {
		marker := " "
		if ar.Disabled {
			marker = "x"
		}
		fmt.Printf("[%s] %-8s %-40s %s\n", marker, severityLabel(ar.Rule.Severity), ar.Rule.ID, ar.Rule.Description)
	}
	fmt.Printf("\n%d rules shown\n", len(rules))
}
