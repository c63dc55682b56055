package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	"driftwatch/internal/config"
	"driftwatch/internal/drift"
	"driftwatch/internal/reconcile"
)

type fakeRunner struct {
	reports []*reconcile.Report
	errs    []error
	calls   int
}

func (f *fakeRunner) Run(context.Context) (*reconcile.Report, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.reports) {
		idx = len(f.reports) - 1
	}
	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	return f.reports[idx], err
}

type fakeRecorder struct {
	recorded []*reconcile.Report
	latest   *reconcile.Report
	pruned   int
}

func (f *fakeRecorder) RecordRun(_ context.Context, report *reconcile.Report) error {
	f.recorded = append(f.recorded, report)
	return nil
}

func (f *fakeRecorder) Latest(context.Context) (*reconcile.Report, error) {
	return f.latest, nil
}

func (f *fakeRecorder) Prune(context.Context, int) (int64, error) {
	f.pruned++
	return 0, nil
}

type fakeNotifier struct {
	driftCalls    int
	recoveryCalls int
	failureCalls  int
}

func (f *fakeNotifier) NotifyDriftDetected(context.Context, *reconcile.Report) error {
	f.driftCalls++
	return nil
}

func (f *fakeNotifier) NotifyBackInSync(context.Context, *reconcile.Report) error {
	f.recoveryCalls++
	return nil
}

func (f *fakeNotifier) NotifyCheckFailed(context.Context, string, error) error {
	f.failureCalls++
	return nil
}

func (f *fakeNotifier) TestNotification(context.Context) error { return nil }

func report(outcome drift.Outcome) *reconcile.Report {
	return &reconcile.Report{
		RunID:      "run-" + string(outcome),
		Target:     "db.internal:5432/app",
		CheckedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
		Outcome:    outcome,
		InSync:     outcome == drift.OutcomeInSync,
	}
}

func watchConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.MigrationsDir = base
	cfg.Paths.StateDir = base
	cfg.Paths.LogDir = base
	cfg.Watch.Interval = 1
	return &cfg
}

func startedWatcher(t *testing.T, cfg *config.Config, runner Runner, recorder Recorder, notifier *fakeNotifier) *Watcher {
	t.Helper()
	watcher, err := New(cfg, runner, recorder, notifier, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := watcher.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(watcher.Stop)
	return watcher
}

func TestRunOnceNotifiesOnDriftTransition(t *testing.T) {
	cfg := watchConfig(t)
	runner := &fakeRunner{reports: []*reconcile.Report{
		report(drift.OutcomeInSync),
		report(drift.OutcomeDrift),
		report(drift.OutcomeDrift),
	}}
	notifier := &fakeNotifier{}
	recorder := &fakeRecorder{}
	watcher := startedWatcher(t, cfg, runner, recorder, notifier)

	ctx := context.Background()
	watcher.RunOnce(ctx)
	watcher.RunOnce(ctx)
	watcher.RunOnce(ctx)

	if notifier.driftCalls != 1 {
		t.Fatalf("driftCalls = %d, want 1 (no repeat alerts while drifted)", notifier.driftCalls)
	}
	if notifier.recoveryCalls != 0 {
		t.Fatalf("recoveryCalls = %d", notifier.recoveryCalls)
	}
	if len(recorder.recorded) != 3 {
		t.Fatalf("recorded = %d runs", len(recorder.recorded))
	}
}

func TestRunOnceNotifiesOnRecovery(t *testing.T) {
	cfg := watchConfig(t)
	runner := &fakeRunner{reports: []*reconcile.Report{
		report(drift.OutcomeDrift),
		report(drift.OutcomeInSync),
		report(drift.OutcomeInSync),
	}}
	notifier := &fakeNotifier{}
	watcher := startedWatcher(t, cfg, runner, &fakeRecorder{}, notifier)

	ctx := context.Background()
	watcher.RunOnce(ctx)
	watcher.RunOnce(ctx)
	watcher.RunOnce(ctx)

	if notifier.driftCalls != 1 || notifier.recoveryCalls != 1 {
		t.Fatalf("drift = %d, recovery = %d", notifier.driftCalls, notifier.recoveryCalls)
	}
}

func TestRunOnceNotifiesEveryFailure(t *testing.T) {
	cfg := watchConfig(t)
	probeErr := errors.New("connection refused")
	runner := &fakeRunner{
		reports: []*reconcile.Report{report(drift.OutcomeUnknown), report(drift.OutcomeUnknown)},
		errs:    []error{probeErr, probeErr},
	}
	notifier := &fakeNotifier{}
	watcher := startedWatcher(t, cfg, runner, &fakeRecorder{}, notifier)

	ctx := context.Background()
	watcher.RunOnce(ctx)
	watcher.RunOnce(ctx)

	if notifier.failureCalls != 2 {
		t.Fatalf("failureCalls = %d, want one per failed cycle", notifier.failureCalls)
	}
}

func TestStartSeedsTransitionStateFromHistory(t *testing.T) {
	cfg := watchConfig(t)
	runner := &fakeRunner{reports: []*reconcile.Report{report(drift.OutcomeDrift)}}
	notifier := &fakeNotifier{}
	recorder := &fakeRecorder{latest: report(drift.OutcomeDrift)}
	watcher := startedWatcher(t, cfg, runner, recorder, notifier)

	watcher.RunOnce(context.Background())

	if notifier.driftCalls != 0 {
		t.Fatalf("driftCalls = %d, drift known from history should not re-alert", notifier.driftCalls)
	}
}

func TestStartRejectsSecondInstance(t *testing.T) {
	cfg := watchConfig(t)
	runner := &fakeRunner{reports: []*reconcile.Report{report(drift.OutcomeInSync)}}
	startedWatcher(t, cfg, runner, &fakeRecorder{}, &fakeNotifier{})

	second, err := New(cfg, runner, &fakeRecorder{}, &fakeNotifier{}, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second instance to fail lock acquisition")
	}
}

func TestRecordSkippedWhenHistoryDisabled(t *testing.T) {
	cfg := watchConfig(t)
	cfg.History.Enabled = false
	runner := &fakeRunner{reports: []*reconcile.Report{report(drift.OutcomeInSync)}}
	recorder := &fakeRecorder{}
	watcher := startedWatcher(t, cfg, runner, recorder, &fakeNotifier{})

	watcher.RunOnce(context.Background())

	if len(recorder.recorded) != 0 {
		t.Fatalf("recorded = %d runs, history is disabled", len(recorder.recorded))
	}
}
