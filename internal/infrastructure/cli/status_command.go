package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/cmdguard/internal/app"
)

func newReloadCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Refresh providers and rebuild the rule set",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Registry.RefreshAndReload(cmd.Context()); err != nil {
				return err
			}
			snapshot := container.Registry.Snapshot()
			fmt.Printf("Rule set rebuilt: %d rules (%d active)\n", snapshot.Len(), snapshot.ActiveLen())
			for kind, count := range snapshot.SourceCounts() {
				fmt.Printf("  %-8s %d\n", kind, count)
			}
			return nil
		},
	}
}

func newStatusCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show providers and rule set state",
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot := container.Registry.Snapshot()

			fmt.Printf("Strictness: %s (blocks at %s and above)\n",
				container.Config.EffectiveStrictness(),
				container.Config.EffectiveStrictness().BlockThreshold())
			fmt.Printf("Rule set: %d rules (%d active), built %s\n",
				snapshot.Len(), snapshot.ActiveLen(), humanize.Time(snapshot.BuiltAt()))

			fmt.Println("\nProviders:")
			for _, info := range container.Registry.Providers() {
				fmt.Printf("  %s\n", info)
			}

			if path := container.AuditStore.Path(); path != "" {
				fmt.Printf("\nAudit log: %s\n", path)
			} else {
				fmt.Println("\nAudit log: disabled")
			}
			return nil
		},
	}
}
