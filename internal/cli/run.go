package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/magfest/radioman/internal/session"
)

// NewRunCommand creates the interactive session command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the interactive checkout session",
		Long: `Start the interactive operator session: a menu loop for checking radios
out and in, with audited overrides for any blocked transition.

Ctrl+C cancels the current action and returns to the menu; 'x' or
end-of-input exits cleanly.

Example:
  radioman run --config event.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(rootOpts, cmd)
		},
	}
	return cmd
}

func runSession(opts *RootOptions, cmd *cobra.Command) error {
	app, err := openApp(opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			slog.Error("error closing snapshot backend", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sess := session.New(cmd.InOrStdin(), cmd.OutOrStdout(), app.store, app.eng, app.ledger, app.resolver)

	// SIGINT cancels the current action, not the process. SIGTERM ends the
	// session.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		for {
			select {
			case sig := <-sigChan:
				if sig == syscall.SIGTERM {
					slog.Info("received SIGTERM, shutting down")
					cancel()
					return
				}
				sess.Interrupt()
			case <-ctx.Done():
				return
			}
		}
	}()

	slog.Debug("session starting", "radios", app.store.Len())
	err = sess.Run(ctx)
	if errors.Is(err, context.Canceled) {
		// SIGTERM shutdown; every committed transition is already flushed.
		return nil
	}
	if err != nil {
		return WrapExitError(ExitFailure, "session error", err)
	}
	return nil
}
