package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/doeshing/cmdguard/internal/app"
)

// ErrBlocked signals a blocked command to main, which maps it to exit code 1.
var ErrBlocked = errors.New("command blocked")

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, err
	}

	root := &cobra.Command{
		Use:   "cmdguard",
		Short: "cmdguard - safety validation for shell commands",
		Long:  "cmdguard checks shell commands against merged safety rule sets and blocks destructive operations.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newValidateCommand(container))
	root.AddCommand(newListRulesCommand(container))
	root.AddCommand(newReloadCommand(container))
	root.AddCommand(newStatusCommand(container))
	root.AddCommand(newAuditCommand(container))
	root.AddCommand(newWatchCommand(container))
	return root, nil
}
