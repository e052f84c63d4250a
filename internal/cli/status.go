package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/magfest/radioman/internal/session"
)

// NewStatusCommand creates the one-shot status report command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the radio status report",
		Long: `Print the tabular status of every provisioned radio: id, status, time of
last activity, department, borrower and headset flag.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil {
					slog.Error("error closing snapshot backend", "error", closeErr)
				}
			}()

			return session.Report(cmd.OutOrStdout(), app.store)
		},
	}
	return cmd
}
