package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"driftwatch/internal/config"
	"driftwatch/internal/drift"
	"driftwatch/internal/inventory"
	"driftwatch/internal/logging"
	"driftwatch/internal/services"
	"driftwatch/internal/tracking"
	"driftwatch/internal/tracking/postgres"
	"driftwatch/internal/tracking/sqlite"
)

const retryMaxDelay = 30 * time.Second

// Checker runs a single reconciliation pass: read the inventory, probe the
// target database, and diff the two.
type Checker struct {
	cfg    *config.Config
	prober tracking.Prober
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
}

// Option adjusts checker construction.
type Option func(*Checker)

// WithProber overrides the prober derived from config (used in tests).
func WithProber(p tracking.Prober) Option {
	return func(c *Checker) { c.prober = p }
}

// WithSleeper overrides how retry sleeps are performed (used in tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Checker) { c.sleep = sleep }
}

// New constructs a checker for the configured target database.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Checker, error) {
	if cfg == nil {
		return nil, errors.New("reconcile: config is required")
	}
	checker := &Checker{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "reconcile"),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(checker)
	}
	if checker.prober == nil {
		prober, err := NewProber(cfg)
		if err != nil {
			return nil, err
		}
		checker.prober = prober
	}
	return checker, nil
}

// NewProber builds the applied-migration prober for the configured driver.
func NewProber(cfg *config.Config) (tracking.Prober, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return postgres.New(cfg.ConnectionString(), cfg.Database.TrackingTable)
	case "sqlite":
		return sqlite.New(cfg.ConnectionString(), cfg.Database.TrackingTable)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "reconcile", "prober",
			fmt.Sprintf("unsupported driver %q", cfg.Database.Driver), nil)
	}
}

// Run executes one reconciliation pass.
//
// Inventory failures (ErrNotFound, ErrValidation) return a nil report: there
// is nothing meaningful to say about the database when the source of truth is
// unreadable. Probe failures return an OutcomeUnknown report alongside the
// error so callers can still render what is known. A missing tracking table is
// not an error at this level: it becomes a report with zero applied
// migrations and the TrackingTableMissing flag set.
func (c *Checker) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithTarget(ctx, c.prober.Target())
	log := logging.WithContext(ctx, c.logger)

	startedAt := time.Now().UTC()

	migrations, err := inventory.Scan(c.cfg.Paths.MigrationsDir)
	if err != nil {
		log.Error("inventory scan failed", logging.Error(err))
		return nil, err
	}
	log.Debug("inventory scanned", logging.Int("migrations", len(migrations)))

	records, probeErr := c.probeWithRetry(ctx, log)

	trackingTableMissing := false
	if probeErr != nil {
		if !errors.Is(probeErr, services.ErrSchemaMissing) {
			report := newReport(runID, c.prober.Target(), startedAt, drift.OutcomeUnknown, drift.Delta{InventoryCount: len(migrations)}, false)
			report.Error = probeErr.Error()
			log.Error("probe failed", logging.Error(probeErr))
			return report, probeErr
		}
		// Tracking table absent: a reachable database where zero migrations
		// have ever been applied. Reported as such, never as a connection
		// failure and never as in-sync-by-omission.
		trackingTableMissing = true
		records = nil
		log.Warn("tracking table missing, treating as zero applied migrations",
			logging.String("table", c.cfg.Database.TrackingTable))
	}

	delta := drift.Diff(migrations, records)
	outcome := delta.Outcome(c.cfg.Check.FailOnUnexpected)
	report := newReport(runID, c.prober.Target(), startedAt, outcome, delta, trackingTableMissing)

	log.Info("check complete",
		logging.String(logging.FieldOutcome, string(outcome)),
		logging.Int(logging.FieldMissing, len(delta.Missing)),
		logging.Int("unexpected", len(delta.Unexpected)),
		logging.Duration("elapsed", report.FinishedAt.Sub(report.CheckedAt)))
	return report, nil
}

// probeWithRetry retries connection failures with exponential backoff. Schema,
// timeout, and configuration errors surface immediately: retrying cannot
// change them.
func (c *Checker) probeWithRetry(ctx context.Context, log *slog.Logger) ([]tracking.Record, error) {
	attempts := c.cfg.Check.RetryAttempts + 1
	delay := time.Duration(c.cfg.Check.RetryDelay) * time.Second

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		probeCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.Check.ProbeTimeout)*time.Second)
		records, err := c.prober.Probe(probeCtx)
		cancel()
		if err == nil {
			return records, nil
		}
		lastErr = err

		if !services.Retryable(err) || attempt == attempts {
			break
		}
		log.Warn("probe attempt failed, retrying",
			logging.Int("attempt", attempt),
			logging.Int("remaining", attempts-attempt),
			logging.Duration("backoff", delay),
			logging.Error(err))
		if err := c.sleep(ctx, delay); err != nil {
			return nil, services.Wrap(services.ErrConnection, "reconcile", "retry", "cancelled while waiting", err)
		}
		if next := delay * 2; next <= retryMaxDelay {
			delay = next
		} else {
			delay = retryMaxDelay
		}
	}
	return nil, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
