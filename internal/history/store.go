package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"driftwatch/internal/config"
	"driftwatch/internal/drift"
	"driftwatch/internal/reconcile"
)

// Store persists check runs in a local SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
// Users will need to delete the history database after schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the location of the history database file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}

	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// RecordRun stores the outcome of a completed check.
func (s *Store) RecordRun(ctx context.Context, report *reconcile.Report) error {
	if report == nil {
		return errors.New("report is nil")
	}

	missingJSON, err := json.Marshal(report.Missing)
	if err != nil {
		return fmt.Errorf("marshal missing: %w", err)
	}
	unexpectedJSON, err := json.Marshal(report.Unexpected)
	if err != nil {
		return fmt.Errorf("marshal unexpected: %w", err)
	}

	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO check_runs (
            run_id, target, outcome, in_sync, tracking_table_missing,
            inventory_count, applied_count, missing_count,
            missing_json, unexpected_json, summary, error,
            checked_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.Target,
		string(report.Outcome),
		boolToInt(report.InSync),
		boolToInt(report.TrackingTableMissing),
		report.InventoryCount,
		report.AppliedCount,
		report.MissingCount,
		string(missingJSON),
		string(unexpectedJSON),
		report.Summary,
		nullableString(report.Error),
		report.CheckedAt.UTC().Format(time.RFC3339Nano),
		report.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert check run: %w", err)
	}
	return nil
}

const runColumns = `run_id, target, outcome, in_sync, tracking_table_missing,
    inventory_count, applied_count, missing_count,
    missing_json, unexpected_json, summary, error, checked_at, finished_at`

// List returns the most recent check runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*reconcile.Report, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+runColumns+` FROM check_runs ORDER BY checked_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list check runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reports []*reconcile.Report
	for rows.Next() {
		report, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check runs: %w", err)
	}
	return reports, nil
}

// GetByRunID fetches a single check run, or nil when absent.
func (s *Store) GetByRunID(ctx context.Context, runID string) (*reconcile.Report, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+runColumns+` FROM check_runs WHERE run_id = ?`,
		runID,
	)
	report, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get check run: %w", err)
	}
	return report, nil
}

// Latest returns the most recent check run, or nil when the history is empty.
func (s *Store) Latest(ctx context.Context) (*reconcile.Report, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+runColumns+` FROM check_runs ORDER BY checked_at DESC, id DESC LIMIT 1`,
	)
	report, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest check run: %w", err)
	}
	return report, nil
}

// Prune deletes runs older than the retention window and returns how many were removed.
func (s *Store) Prune(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx, `DELETE FROM check_runs WHERE checked_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune check runs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*reconcile.Report, error) {
	var (
		report         reconcile.Report
		outcome        string
		inSync         int
		tableMissing   int
		missingJSON    sql.NullString
		unexpectedJSON sql.NullString
		errText        sql.NullString
		checkedAt      string
		finishedAt     string
	)
	if err := row.Scan(
		&report.RunID,
		&report.Target,
		&outcome,
		&inSync,
		&tableMissing,
		&report.InventoryCount,
		&report.AppliedCount,
		&report.MissingCount,
		&missingJSON,
		&unexpectedJSON,
		&report.Summary,
		&errText,
		&checkedAt,
		&finishedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan check run: %w", err)
	}

	report.Outcome = drift.Outcome(outcome)
	report.InSync = inSync != 0
	report.TrackingTableMissing = tableMissing != 0
	report.Error = errText.String
	if missingJSON.Valid && missingJSON.String != "" {
		if err := json.Unmarshal([]byte(missingJSON.String), &report.Missing); err != nil {
			return nil, fmt.Errorf("decode missing: %w", err)
		}
	}
	if unexpectedJSON.Valid && unexpectedJSON.String != "" {
		if err := json.Unmarshal([]byte(unexpectedJSON.String), &report.Unexpected); err != nil {
			return nil, fmt.Errorf("decode unexpected: %w", err)
		}
	}
	if parsed, err := time.Parse(time.RFC3339Nano, checkedAt); err == nil {
		report.CheckedAt = parsed
	}
	if parsed, err := time.Parse(time.RFC3339Nano, finishedAt); err == nil {
		report.FinishedAt = parsed
	}
	return &report, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
