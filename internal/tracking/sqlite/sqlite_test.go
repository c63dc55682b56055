package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"driftwatch/internal/services"
)

func seedDatabase(t *testing.T, schema string, statements ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if schema != "" {
		if _, err := db.Exec(schema); err != nil {
			t.Fatal(err)
		}
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestProbeReadsVersionsAndTimestamps(t *testing.T) {
	path := seedDatabase(t,
		"CREATE TABLE schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMP)",
		"INSERT INTO schema_migrations VALUES ('001', '2026-01-02 03:04:05')",
		"INSERT INTO schema_migrations VALUES ('002', '2026-01-03 03:04:05')",
	)

	prober, err := New(path, "schema_migrations")
	if err != nil {
		t.Fatal(err)
	}
	records, err := prober.Probe(context.Background())
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if len(records) != 2 || records[0].Version != "001" || records[1].Version != "002" {
		t.Fatalf("records = %+v", records)
	}
	if records[0].AppliedAt.IsZero() {
		t.Fatal("expected applied_at to be scanned")
	}
}

func TestProbeVersionOnlyTableFallsBack(t *testing.T) {
	path := seedDatabase(t,
		"CREATE TABLE schema_migrations (version TEXT PRIMARY KEY)",
		"INSERT INTO schema_migrations VALUES ('001')",
	)

	prober, err := New(path, "schema_migrations")
	if err != nil {
		t.Fatal(err)
	}
	records, err := prober.Probe(context.Background())
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if len(records) != 1 || records[0].Version != "001" {
		t.Fatalf("records = %+v", records)
	}
	if !records[0].AppliedAt.IsZero() {
		t.Fatal("version-only table should leave AppliedAt zero")
	}
}

func TestProbeMissingTableIsSchemaError(t *testing.T) {
	path := seedDatabase(t, "CREATE TABLE unrelated (id INTEGER)")

	prober, err := New(path, "schema_migrations")
	if err != nil {
		t.Fatal(err)
	}
	_, err = prober.Probe(context.Background())
	if !errors.Is(err, services.ErrSchemaMissing) {
		t.Fatalf("expected ErrSchemaMissing, got %v", err)
	}
	if errors.Is(err, services.ErrConnection) {
		t.Fatalf("schema error must not double as connection error: %v", err)
	}
}

func TestProbeMissingFileIsConnectionError(t *testing.T) {
	prober, err := New(filepath.Join(t.TempDir(), "absent.db"), "schema_migrations")
	if err != nil {
		t.Fatal(err)
	}
	_, err = prober.Probe(context.Background())
	if !errors.Is(err, services.ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}

func TestNewRejectsUnsafeTableName(t *testing.T) {
	if _, err := New("app.db", "schema_migrations; DROP TABLE users"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
