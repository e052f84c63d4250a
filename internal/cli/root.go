// Package cli wires the radioman commands.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config  string
	Verbose bool
}

// NewRootCommand creates the root command for the radioman CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "radioman",
		Short: "Event radio checkout tracker",
		Long: `radioman tracks two-way radios and headsets loaned to staff at a live
event: who has which radio, which department it is billed against, and the
full history of checkouts and returns. Every waived business rule is
recorded in a permanent audit trail.`,
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "config.yaml", "path to the configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewCheckoutCommand(opts))
	cmd.AddCommand(NewCheckinCommand(opts))

	return cmd
}
