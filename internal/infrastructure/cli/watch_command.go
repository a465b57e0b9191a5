package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doeshing/cmdguard/internal/app"
)

// newWatchCommand keeps the process alive and lets the refresher pull rule
// updates on its cadence. Intended for shell integrations that talk to a
// long-lived cmdguard instead of paying a cold start per command.
func newWatchCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run in the foreground, refreshing rule sources on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			container.Refresher.Start()
			defer container.Refresher.Stop()

			fmt.Printf("Watching rule sources (refresh every %s). Ctrl-C to stop.\n",
				container.Config.RefreshEvery())

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			select {
			case <-sig:
			case <-cmd.Context().Done():
			}
			fmt.Println("Stopping.")
			return nil
		},
	}
}
