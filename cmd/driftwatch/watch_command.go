package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"driftwatch/internal/history"
	"driftwatch/internal/logging"
	"driftwatch/internal/notifications"
	"driftwatch/internal/preflight"
	"driftwatch/internal/reconcile"
	"driftwatch/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run checks continuously and alert on drift transitions",
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

			if !skipPreflight {
				prober, proberErr := reconcile.NewProber(cfg)
				if proberErr != nil {
					return proberErr
				}
				results := preflight.RunAll(cmd.Context(), cfg, prober)
				renderPreflightResults(cmd.OutOrStdout(), results)
				if !preflight.AllPassed(results) {
					return errors.New("preflight failed; fix the environment or rerun with --skip-preflight")
				}
			}

			var recorder watch.Recorder
			if cfg.History.Enabled {
				store, storeErr := history.Open(cfg)
				if storeErr != nil {
					return fmt.Errorf("open history: %w", storeErr)
				}
				defer store.Close()
				recorder = store
			}

			watcher, err := watch.New(cfg, checker, recorder, notifications.NewService(cfg), logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := watcher.Start(runCtx); err != nil {
				return err
			}
			defer watcher.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s every %ds (lock: %s)\n",
				cfg.Target(), cfg.Watch.Interval, watcher.LockPath())

			if err := watcher.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start watching even if preflight checks fail")
	return cmd
}
