package inventory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"driftwatch/internal/services"
)

func writeFiles(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func versionsOf(migrations []Migration) []string {
	out := make([]string, len(migrations))
	for i, m := range migrations {
		out[i] = m.Version
	}
	return out
}

func TestScanOrdersByVersion(t *testing.T) {
	dir := writeFiles(t,
		"010_add_index.sql",
		"002_create_orders.sql",
		"001_create_users.sql",
		"notes.txt",
		"README.md",
	)

	migrations, err := Scan(dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	got := versionsOf(migrations)
	want := []string{"001", "002", "010"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if migrations[0].Name != "create_users" {
		t.Fatalf("name = %q", migrations[0].Name)
	}
	if migrations[0].Path != filepath.Join(dir, "001_create_users.sql") {
		t.Fatalf("path = %q", migrations[0].Path)
	}
}

func TestScanMixedPrefixWidths(t *testing.T) {
	dir := writeFiles(t,
		"20240101120000_big_rework.sql",
		"002_create_orders.sql",
	)
	migrations, err := Scan(dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if migrations[0].Version != "002" || migrations[1].Version != "20240101120000" {
		t.Fatalf("order wrong: %v", versionsOf(migrations))
	}
}

func TestScanMissingDirIsNotFound(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScanDuplicateVersionIsValidationError(t *testing.T) {
	dir := writeFiles(t, "001_create_users.sql", "001_create_orders.sql")
	_, err := Scan(dir)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestScanEmptyDir(t *testing.T) {
	migrations, err := Scan(t.TempDir())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(migrations) != 0 {
		t.Fatalf("expected empty inventory, got %v", migrations)
	}
}

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"001", "002", -1},
		{"002", "001", 1},
		{"010", "2", 1},
		{"001", "001", 0},
		{"0001", "001", -1}, // same numeric value, literal tiebreak keeps order total
		{"002", "20240101120000", -1},
	}
	for _, tc := range cases {
		if got := CompareVersions(tc.a, tc.b); got != tc.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
