package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"driftwatch/internal/config"
	"driftwatch/internal/drift"
	"driftwatch/internal/logging"
	"driftwatch/internal/notifications"
	"driftwatch/internal/reconcile"
)

// Runner executes a single reconciliation check.
type Runner interface {
	Run(ctx context.Context) (*reconcile.Report, error)
}

// Recorder persists completed check runs.
type Recorder interface {
	RecordRun(ctx context.Context, report *reconcile.Report) error
	Latest(ctx context.Context) (*reconcile.Report, error)
	Prune(ctx context.Context, retentionDays int) (int64, error)
}

// Watcher runs checks on an interval and enforces single-instance execution.
type Watcher struct {
	cfg      *config.Config
	logger   *slog.Logger
	runner   Runner
	recorder Recorder
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc

	previous drift.Outcome
}

// New constructs a watcher with initialized dependencies.
// The recorder may be nil when history is disabled.
func New(cfg *config.Config, runner Runner, recorder Recorder, notifier notifications.Service, logger *slog.Logger) (*Watcher, error) {
	if cfg == nil || runner == nil {
		return nil, errors.New("watcher requires config and runner")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockFilePath()
	return &Watcher{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "watch"),
		runner:   runner,
		recorder: recorder,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the watch lock and seeds transition state from history.
func (w *Watcher) Start(ctx context.Context) error {
	if w.running.Load() {
		return errors.New("watcher already running")
	}

	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another driftwatch watch instance is already running")
	}

	if w.recorder != nil {
		if last, histErr := w.recorder.Latest(ctx); histErr == nil && last != nil {
			w.previous = last.Outcome
		}
	}

	w.running.Store(true)
	w.logger.Info("watch started",
		logging.String("lock", w.lockPath),
		logging.Int("interval_seconds", w.cfg.Watch.Interval))
	return nil
}

// Stop releases the watch lock.
func (w *Watcher) Stop() {
	if !w.running.Load() {
		return
	}
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if err := w.lock.Unlock(); err != nil {
		w.logger.Warn("failed to release watch lock", logging.Error(err))
	}
	w.running.Store(false)
	w.logger.Info("watch stopped")
}

// Run blocks, executing one check immediately and then one per interval,
// until the context is cancelled. Start must have been called first.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.running.Load() {
		return errors.New("watcher not started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	defer cancel()

	interval := time.Duration(w.cfg.Watch.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.RunOnce(runCtx)
	for {
		select {
		case <-runCtx.Done():
			return runCtx.Err()
		case <-ticker.C:
			w.RunOnce(runCtx)
		}
	}
}

// RunOnce executes a single check cycle: run, record, notify on transitions.
func (w *Watcher) RunOnce(ctx context.Context) {
	report, err := w.runner.Run(ctx)
	if report == nil {
		w.logger.Error("check could not start", logging.Error(err))
		if notifyErr := w.notifier.NotifyCheckFailed(ctx, w.cfg.Target(), err); notifyErr != nil {
			w.logger.Warn("notification failed", logging.Error(notifyErr))
		}
		return
	}

	w.record(ctx, report)
	w.handleTransition(ctx, report, err)
	w.previous = report.Outcome
}

func (w *Watcher) record(ctx context.Context, report *reconcile.Report) {
	if w.recorder == nil || !w.cfg.History.Enabled {
		return
	}
	if err := w.recorder.RecordRun(ctx, report); err != nil {
		w.logger.Warn("failed to record check run", logging.Error(err))
		return
	}
	if removed, err := w.recorder.Prune(ctx, w.cfg.History.RetentionDays); err != nil {
		w.logger.Warn("failed to prune history", logging.Error(err))
	} else if removed > 0 {
		w.logger.Debug("pruned history", logging.Int("removed", int(removed)))
	}
}

func (w *Watcher) handleTransition(ctx context.Context, report *reconcile.Report, runErr error) {
	var notifyErr error
	switch report.Outcome {
	case drift.OutcomeDrift:
		w.logger.Warn("drift detected",
			logging.String(logging.FieldRunID, report.RunID),
			logging.Int(logging.FieldMissing, report.MissingCount))
		if w.previous != drift.OutcomeDrift {
			notifyErr = w.notifier.NotifyDriftDetected(ctx, report)
		}
	case drift.OutcomeInSync:
		w.logger.Info("schema in sync", logging.String(logging.FieldRunID, report.RunID))
		if w.previous == drift.OutcomeDrift {
			notifyErr = w.notifier.NotifyBackInSync(ctx, report)
		}
	case drift.OutcomeUnknown:
		w.logger.Error("check failed", logging.String(logging.FieldRunID, report.RunID), logging.Error(runErr))
		notifyErr = w.notifier.NotifyCheckFailed(ctx, report.Target, runErr)
	}
	if notifyErr != nil {
		w.logger.Warn("notification failed", logging.Error(notifyErr))
	}
}

// Running reports whether the watch lock is currently held.
func (w *Watcher) Running() bool {
	return w.running.Load()
}

// LockPath returns the path of the single-instance lock file.
func (w *Watcher) LockPath() string {
	return w.lockPath
}
