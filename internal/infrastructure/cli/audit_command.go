package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/doeshing/cmdguard/internal/app"
)

func newAuditCommand(container *app.Container) *cobra.Command {
	var (
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent validation decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := container.AuditStore.Recent(limit, search)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No audit records.")
				return nil
			}
			for _, rec := range records {
				verdict := "allowed"
				if !rec.Allowed {
					verdict = "BLOCKED"
				}
				fmt.Printf("%-14s %-8s %-8s %s\n",
					humanize.Time(rec.Timestamp), severityLabel(rec.RiskLevel), verdict, rec.Command)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records")
	cmd.Flags().StringVar(&search, "search", "", "Filter by command substring")

	return cmd
}
