package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"driftwatch/internal/services"
)

// migrationPattern matches version-prefixed migration filenames. Both short
// counters (001_create_users.sql) and timestamp prefixes
// (20240101120000_create_users.sql) are accepted.
var migrationPattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// Migration identifies a single versioned schema-change script in the
// inventory. Version is the identifier compared against the database's
// tracking table.
type Migration struct {
	Version  string
	Name     string
	Filename string
	Path     string
}

// Scan reads the migrations directory and returns the inventory ordered by
// version. Files that do not match the naming convention are skipped. The
// returned error is tagged services.ErrNotFound when the directory is
// unreadable and services.ErrValidation when the inventory itself is
// malformed; neither is retryable.
func Scan(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "inventory", "scan", fmt.Sprintf("read migrations dir %s", dir), err)
	}

	var migrations []Migration
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		match := migrationPattern.FindStringSubmatch(name)
		if match == nil {
			continue
		}

		version := match[1]
		migrationName := strings.TrimSpace(match[2])
		if migrationName == "" {
			return nil, services.Wrap(services.ErrValidation, "inventory", "scan", fmt.Sprintf("empty migration name in file %s", name), nil)
		}
		if previous, dup := seen[version]; dup {
			return nil, services.Wrap(services.ErrValidation, "inventory", "scan",
				fmt.Sprintf("duplicate version %s (%s and %s)", version, previous, name), nil)
		}
		seen[version] = name

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     migrationName,
			Filename: name,
			Path:     filepath.Join(dir, name),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return CompareVersions(migrations[i].Version, migrations[j].Version) < 0
	})

	return migrations, nil
}

// CompareVersions orders numeric version strings without parsing them into
// integers, so arbitrarily long timestamp prefixes cannot overflow. Leading
// zeros are ignored for ordering but preserved as identifiers.
func CompareVersions(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	switch {
	case ta < tb:
		return -1
	case ta > tb:
		return 1
	}
	// Same numeric value; fall back to the literal form so ordering stays total.
	return strings.Compare(a, b)
}
