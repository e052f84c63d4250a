package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/magfest/radioman/internal/engine"
)

// CheckoutOptions holds flags for the one-shot checkout command.
type CheckoutOptions struct {
	*RootOptions
	Radio      string
	Department string
	Name       string
	Badge      string
	Barcode    string
	Headset    bool
	Overrides  []string
	Operator   string
	Reason     string
}

// NewCheckoutCommand creates the non-interactive checkout command.
func NewCheckoutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckoutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Check out one radio non-interactively",
		Long: `Check out one radio without the interactive session, for scripting and
quick fixes. Blocked transitions fail unless the matching override kind is
supplied with --override; each used override is recorded in the audit
trail under --operator.

Example:
  radioman checkout --radio 12 --department Ops --name "Sam Onella" --headset
  radioman checkout --radio 12 --department Ops --name "Sam Onella" \
    --override ALLOW_DOUBLE_CHECKOUT --operator "Dana" --reason "radio swap"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckout(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Radio, "radio", "", "radio id (required)")
	cmd.Flags().StringVar(&opts.Department, "department", "", "department to bill against")
	cmd.Flags().StringVar(&opts.Name, "name", "", "borrower name")
	cmd.Flags().StringVar(&opts.Badge, "badge", "", "borrower badge number")
	cmd.Flags().StringVar(&opts.Barcode, "barcode", "", "borrower badge barcode")
	cmd.Flags().BoolVar(&opts.Headset, "headset", false, "loan a headset with the radio")
	cmd.Flags().StringArrayVar(&opts.Overrides, "override", nil, "override kind to authorize (repeatable)")
	cmd.Flags().StringVar(&opts.Operator, "operator", "", "operator authorizing the overrides")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "justification recorded with each override")
	_ = cmd.MarkFlagRequired("radio")

	return cmd
}

func runCheckout(opts *CheckoutOptions, cmd *cobra.Command) error {
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

	req := engine.CheckoutRequest{
		RadioID:    opts.Radio,
		Department: opts.Department,
		Borrower:   opts.Name,
		Badge:      opts.Badge,
		Barcode:    opts.Barcode,
		Headset:    opts.Headset,
	}

	err = attemptWithOverrides(app, supplied, opts.Operator, opts.Reason, req.RadioID, req.Borrower,
		func(ov engine.Overrides) error {
			_, err := app.eng.Checkout(req, ov)
			return err
		})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Checked out radio %s to %s\n", opts.Radio, opts.Name)
	return nil
}

// attemptWithOverrides retries a transition, arming one supplied override
// kind per blocked attempt and recording it in the audit trail before the
// retry, the same discipline as the interactive session. A rule violation
// whose kind was not supplied fails the command.
func attemptWithOverrides(app *app, supplied engine.Overrides, operator, reason, radioID, borrower string, attempt func(engine.Overrides) error) error {
	armed := engine.NewOverrides()
	for {
		err := attempt(armed)
		if err == nil {
			return nil
		}
		re, ok := engine.AsRuleError(err)
		if !ok {
			return WrapExitError(ExitFailure, "transition failed", err)
		}
		if !supplied.Has(re.Override) || armed.Has(re.Override) {
			return WrapExitError(ExitFailure,
				fmt.Sprintf("%s (supply --override %s to bypass)", re.Message, re.Override), nil)
		}
		app.ledger.Record(re.Override, radioID, borrower, operator, reason)
		armed.Add(re.Override)
	}
}
