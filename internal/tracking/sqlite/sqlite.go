package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"driftwatch/internal/services"
	"driftwatch/internal/tracking"
)

// Prober reads applied-migration records from a SQLite tracking table.
type Prober struct {
	path  string
	table string
}

// New constructs a SQLite prober for the given database file and tracking table.
func New(path, table string) (*Prober, error) {
	if !tracking.ValidTableName(table) {
		return nil, services.Wrap(services.ErrConfiguration, "tracking", "sqlite", fmt.Sprintf("invalid tracking table name %q", table), nil)
	}
	return &Prober{path: path, table: table}, nil
}

// Target returns the database file path.
func (p *Prober) Target() string {
	return p.path
}

// Probe opens the database file and reads the tracking table. A missing file
// is a connection failure: opening it would silently create an empty database
// and turn "unreachable" into a fake "zero migrations applied".
func (p *Prober) Probe(ctx context.Context) ([]tracking.Record, error) {
	if _, err := os.Stat(p.path); err != nil {
		return nil, services.Wrap(services.ErrConnection, "tracking", "sqlite",
			fmt.Sprintf("database file %s", p.path), err)
	}

	db, err := sql.Open("sqlite", p.path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "tracking", "sqlite", fmt.Sprintf("open %s", p.path), err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, p.classify("ping", err)
	}

	records, err := p.query(ctx, db, true)
	if err == nil {
		return records, nil
	}
	if isMissingColumn(err) {
		return p.query(ctx, db, false)
	}
	return nil, err
}

func (p *Prober) query(ctx context.Context, db *sql.DB, withTimestamps bool) ([]tracking.Record, error) {
	columns := "version"
	if withTimestamps {
		columns = "version, applied_at"
	}
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY version ASC", columns, p.table))
	if err != nil {
		if isMissingTable(err) {
			return nil, services.Wrap(services.ErrSchemaMissing, "tracking", "sqlite",
				fmt.Sprintf("table %s does not exist in %s", p.table, p.path), err)
		}
		if isMissingColumn(err) {
			return nil, err
		}
		return nil, p.classify("query tracking table", err)
	}
	defer rows.Close()

	var records []tracking.Record
	for rows.Next() {
		var record tracking.Record
		if withTimestamps {
			var appliedAt any
			if err := rows.Scan(&record.Version, &appliedAt); err != nil {
				return nil, services.Wrap(services.ErrConnection, "tracking", "sqlite", "scan tracking row", err)
			}
			record.AppliedAt = coerceTime(appliedAt)
		} else {
			if err := rows.Scan(&record.Version); err != nil {
				return nil, services.Wrap(services.ErrConnection, "tracking", "sqlite", "scan tracking row", err)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, p.classify("read tracking rows", err)
	}
	return records, nil
}

func (p *Prober) classify(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "tracking", "sqlite",
			fmt.Sprintf("%s on %s", operation, p.path), err)
	}
	return services.Wrap(services.ErrConnection, "tracking", "sqlite",
		fmt.Sprintf("%s on %s", operation, p.path), err)
}

// SQLite has no timestamp type; tracking tables written by different
// migration tools store TEXT in a handful of layouts, or the driver hands
// back a time.Time directly when the value was bound as one.
func coerceTime(value any) time.Time {
	switch v := value.(type) {
	case time.Time:
		return v
	case string:
		return parseTimeText(v)
	case []byte:
		return parseTimeText(string(v))
	default:
		return time.Time{}
	}
}

func parseTimeText(text string) time.Time {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// modernc.org/sqlite surfaces SQLITE_ERROR text; the driver does not expose
// structured codes for these two, so the message is the contract.
func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

func isMissingColumn(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such column")
}
