package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"driftwatch/internal/config"
	"driftwatch/internal/drift"
	"driftwatch/internal/logging"
	"driftwatch/internal/services"
	"driftwatch/internal/tracking"
)

type fakeProber struct {
	records []tracking.Record
	errs    []error
	calls   int
}

func (f *fakeProber) Probe(ctx context.Context) ([]tracking.Record, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.records, nil
}

func (f *fakeProber) Target() string { return "fake:5432/app" }

func noSleep(context.Context, time.Duration) error { return nil }

func testConfig(t *testing.T, migrations ...string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for _, name := range migrations {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.Default()
	cfg.Paths.MigrationsDir = dir
	cfg.Database.Name = "app"
	cfg.Check.ProbeTimeout = 1
	cfg.Check.RetryAttempts = 2
	cfg.Check.RetryDelay = 1
	return &cfg
}

func newChecker(t *testing.T, cfg *config.Config, prober tracking.Prober) *Checker {
	t.Helper()
	checker, err := New(cfg, logging.NewNop(), WithProber(prober), WithSleeper(noSleep))
	if err != nil {
		t.Fatal(err)
	}
	return checker
}

func TestRunInSync(t *testing.T) {
	cfg := testConfig(t, "001_create_users.sql", "002_create_orders.sql")
	prober := &fakeProber{records: []tracking.Record{{Version: "001"}, {Version: "002"}}}

	report, err := newChecker(t, cfg, prober).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.InSync || report.Outcome != drift.OutcomeInSync {
		t.Fatalf("report = %+v", report)
	}
	if report.MissingCount != 0 || len(report.Missing) != 0 {
		t.Fatalf("missing = %+v", report.Missing)
	}
	if report.RunID == "" {
		t.Fatal("expected run id")
	}
}

func TestRunDetectsDrift(t *testing.T) {
	cfg := testConfig(t, "001_create_users.sql", "002_create_orders.sql", "003_add_index.sql")
	prober := &fakeProber{records: []tracking.Record{{Version: "001"}, {Version: "002"}}}

	report, err := newChecker(t, cfg, prober).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.InSync || report.Outcome != drift.OutcomeDrift {
		t.Fatalf("report = %+v", report)
	}
	if report.MissingCount != 1 || report.Missing[0].Version != "003" {
		t.Fatalf("missing = %+v", report.Missing)
	}
}

func TestRunMissingInventoryDirIsFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.MigrationsDir = filepath.Join(t.TempDir(), "absent")
	prober := &fakeProber{}

	report, err := newChecker(t, cfg, prober).Run(context.Background())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if report != nil {
		t.Fatalf("expected nil report, got %+v", report)
	}
	if prober.calls != 0 {
		t.Fatal("prober must not run when inventory is unreadable")
	}
}

func TestRunSchemaMissingBecomesReport(t *testing.T) {
	cfg := testConfig(t, "001_create_users.sql")
	prober := &fakeProber{errs: []error{services.Wrap(services.ErrSchemaMissing, "tracking", "probe", "no table", nil)}}

	report, err := newChecker(t, cfg, prober).Run(context.Background())
	if err != nil {
		t.Fatalf("schema-missing should not surface as an error: %v", err)
	}
	if !report.TrackingTableMissing {
		t.Fatal("expected TrackingTableMissing flag")
	}
	if report.InSync || report.Outcome != drift.OutcomeDrift {
		t.Fatalf("report = %+v", report)
	}
	if report.MissingCount != 1 {
		t.Fatalf("missing = %+v", report.Missing)
	}
	if prober.calls != 1 {
		t.Fatalf("schema errors must not be retried, calls = %d", prober.calls)
	}
}

func TestRunRetriesConnectionErrors(t *testing.T) {
	cfg := testConfig(t, "001_create_users.sql")
	connErr := services.Wrap(services.ErrConnection, "tracking", "probe", "refused", nil)
	prober := &fakeProber{
		records: []tracking.Record{{Version: "001"}},
		errs:    []error{connErr, connErr, nil},
	}

	report, err := newChecker(t, cfg, prober).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if prober.calls != 3 {
		t.Fatalf("calls = %d, want 3", prober.calls)
	}
	if !report.InSync {
		t.Fatalf("report = %+v", report)
	}
}

func TestRunConnectionExhaustionIsUnknown(t *testing.T) {
	cfg := testConfig(t, "001_create_users.sql")
	connErr := services.Wrap(services.ErrConnection, "tracking", "probe", "refused", nil)
	prober := &fakeProber{errs: []error{connErr, connErr, connErr, connErr}}

	report, err := newChecker(t, cfg, prober).Run(context.Background())
	if !errors.Is(err, services.ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
	if prober.calls != cfg.Check.RetryAttempts+1 {
		t.Fatalf("calls = %d, want %d", prober.calls, cfg.Check.RetryAttempts+1)
	}
	if report == nil || report.Outcome != drift.OutcomeUnknown {
		t.Fatalf("report = %+v", report)
	}
	if report.InSync {
		t.Fatal("a failed check must never look like success")
	}
	if report.Error == "" {
		t.Fatal("expected error detail on report")
	}
}

func TestRunTimeoutIsUnknownWithoutRetry(t *testing.T) {
	cfg := testConfig(t, "001_create_users.sql")
	timeoutErr := services.Wrap(services.ErrTimeout, "tracking", "probe", "deadline", context.DeadlineExceeded)
	prober := &fakeProber{errs: []error{timeoutErr}}

	report, err := newChecker(t, cfg, prober).Run(context.Background())
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if prober.calls != 1 {
		t.Fatalf("timeouts must not be retried, calls = %d", prober.calls)
	}
	if report == nil || report.Outcome != drift.OutcomeUnknown {
		t.Fatalf("report = %+v", report)
	}
}

func TestRunStrictUnexpected(t *testing.T) {
	cfg := testConfig(t, "001_create_users.sql")
	cfg.Check.FailOnUnexpected = true
	prober := &fakeProber{records: []tracking.Record{{Version: "001"}, {Version: "999"}}}

	report, err := newChecker(t, cfg, prober).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Outcome != drift.OutcomeDrift {
		t.Fatalf("outcome = %v", report.Outcome)
	}
	if len(report.Unexpected) != 1 || report.Unexpected[0].Version != "999" {
		t.Fatalf("unexpected = %+v", report.Unexpected)
	}
}

func TestNewProberRejectsUnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "oracle"
	if _, err := NewProber(&cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
