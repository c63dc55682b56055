package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"driftwatch/internal/drift"
	"driftwatch/internal/logging"
	"driftwatch/internal/preflight"
	"driftwatch/internal/reconcile"
)

// gate is the CI entrypoint: a single line of output and the exit code
// carry the whole verdict. Unknown outcomes fail the gate; an unreachable
// database must never be mistaken for an in-sync schema.
func newGateCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Fail with a non-zero exit code unless the schema is verifiably in sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			prober, err := reconcile.NewProber(cfg)
			if err != nil {
				return err
			}

			if !skipPreflight {
				results := preflight.RunAll(cmd.Context(), cfg, prober)
				if !preflight.AllPassed(results) {
					renderPreflightResults(cmd.OutOrStdout(), results)
					return &exitError{code: 2, message: "gate: preflight failed"}
				}
			}

			checker, err := reconcile.New(cfg, logging.NewNop(), reconcile.WithProber(prober))
			if err != nil {
				return err
			}

			report, runErr := checker.Run(cmd.Context())
			if report == nil {
				return &exitError{code: 2, message: fmt.Sprintf("gate: %v", runErr)}
			}

			out := cmd.OutOrStdout()
			switch report.Outcome {
			case drift.OutcomeInSync:
				fmt.Fprintf(out, "gate: in sync (%d migrations applied on %s)\n",
					report.AppliedCount, report.Target)
				return nil
			case drift.OutcomeDrift:
				fmt.Fprintf(out, "gate: drift (%s)\n", report.Summary)
				return &exitError{code: 1}
			default:
				message := fmt.Sprintf("gate: unknown (%s)", report.Summary)
				if runErr != nil {
					message = fmt.Sprintf("gate: unknown (%v)", runErr)
				}
				return &exitError{code: 2, message: message}
			}
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Run the reconciliation even if preflight checks fail")
	return cmd
}
