package main

import (
	"github.com/spf13/cobra"

	"driftwatch/internal/preflight"
	"driftwatch/internal/reconcile"
	"driftwatch/internal/tracking"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var skipDatabase bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Verify the environment before wiring up a gate or watch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var prober tracking.Prober
			if !skipDatabase {
				built, proberErr := reconcile.NewProber(cfg)
				if proberErr != nil {
					return proberErr
				}
				prober = built
			}

			results := preflight.RunAll(cmd.Context(), cfg, prober)
			renderPreflightResults(cmd.OutOrStdout(), results)

			if !preflight.AllPassed(results) {
				return &exitError{code: 2}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipDatabase, "skip-database", false, "Skip the database reachability check")
	return cmd
}
