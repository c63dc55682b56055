package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"driftwatch/internal/drift"
	"driftwatch/internal/history"
	"driftwatch/internal/logging"
	"driftwatch/internal/reconcile"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var skipHistory bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare migration files against the applied-migration tracking table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			checker, err := reconcile.New(cfg, logger)
			if err != nil {
				return err
			}

			report, runErr := checker.Run(cmd.Context())
			if report == nil {
				return runErr
			}

			if cfg.History.Enabled && !skipHistory {
				if store, storeErr := history.Open(cfg); storeErr == nil {
					if recordErr := store.RecordRun(cmd.Context(), report); recordErr != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not record run: %v\n", recordErr)
					}
					_, _ = store.Prune(cmd.Context(), cfg.History.RetentionDays)
					_ = store.Close()
				} else {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: history unavailable: %v\n", storeErr)
				}
			}

			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				renderReport(cmd.OutOrStdout(), report)
			}

			return exitForOutcome(report, runErr)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the report as JSON")
	cmd.Flags().BoolVar(&skipHistory, "no-history", false, "Skip recording this run in the history database")
	return cmd
}

// exitForOutcome maps a report to the process exit contract: 0 in sync,
// 1 drift, 2 unknown. The report is already printed, so drift and unknown
// suppress the duplicate error line unless there is a cause to show.
func exitForOutcome(report *reconcile.Report, runErr error) error {
	switch report.Outcome {
	case drift.OutcomeInSync:
		return nil
	case drift.OutcomeDrift:
		return &exitError{code: 1}
	default:
		message := ""
		if runErr != nil {
			message = fmt.Sprintf("check did not complete: %v", runErr)
		}
		return &exitError{code: 2, message: message}
	}
}
