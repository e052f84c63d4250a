package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/magfest/radioman/internal/engine"
)

// CheckinOptions holds flags for the one-shot checkin command.
type CheckinOptions struct {
	*RootOptions
	Radio     string
	Name      string
	Badge     string
	Barcode   string
	Headset   bool
	Overrides []string
	Operator  string
	Reason    string
}

// NewCheckinCommand creates the non-interactive return command.
func NewCheckinCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckinOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "checkin",
		Aliases: []string{"return"},
		Short:   "Check in one radio non-interactively",
		Long: `Return one radio without the interactive session. Blocked transitions
fail unless the matching override kind is supplied with --override; each
used override is recorded in the audit trail under --operator.

Example:
  radioman checkin --radio 12 --name "Sam Onella" --headset`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckin(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Radio, "radio", "", "radio id (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "name of the person returning the radio")
	cmd.Flags().StringVar(&opts.Badge, "badge", "", "returner badge number")
	cmd.Flags().StringVar(&opts.Barcode, "barcode", "", "returner badge barcode")
	cmd.Flags().BoolVar(&opts.Headset, "headset", false, "a headset is being returned")
	cmd.Flags().StringArrayVar(&opts.Overrides, "override", nil, "override kind to authorize (repeatable)")
	cmd.Flags().StringVar(&opts.Operator, "operator", "", "operator authorizing the overrides")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "justification recorded with each override")
	_ = cmd.MarkFlagRequired("radio")

	return cmd
}

func runCheckin(opts *CheckinOptions, cmd *cobra.Command) error {
	supplied, err := parseOverrides(opts.Overrides)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --override", err)
	}
	if len(supplied) > 0 && opts.Operator == "" {
		return NewExitError(ExitCommandError, "--operator is required when supplying overrides")
	}

	app, err := openApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			slog.Error("error closing snapshot backend", "error", closeErr)
		}
	}()

	req := engine.ReturnRequest{
		RadioID:  opts.Radio,
		Borrower: opts.Name,
		Badge:    opts.Badge,
		Barcode:  opts.Barcode,
		Headset:  opts.Headset,
	}

	err = attemptWithOverrides(app, supplied, opts.Operator, opts.Reason, req.RadioID, req.Borrower,
		func(ov engine.Overrides) error {
			_, err := app.eng.Return(req, ov)
			return err
		})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Radio %s returned by %s\n", opts.Radio, opts.Name)
	return nil
}
