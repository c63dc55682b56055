package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/lib/pq"

	"driftwatch/internal/services"
	"driftwatch/internal/tracking"
)

const (
	// undefined_table and undefined_column per the PostgreSQL error code table.
	codeUndefinedTable  = "42P01"
	codeUndefinedColumn = "42703"
)

// Prober reads applied-migration records from a PostgreSQL tracking table.
type Prober struct {
	dsn   string
	table string
}

// New constructs a PostgreSQL prober for the given DSN and tracking table.
func New(dsn, table string) (*Prober, error) {
	if !tracking.ValidTableName(table) {
		return nil, services.Wrap(services.ErrConfiguration, "tracking", "postgres", fmt.Sprintf("invalid tracking table name %q", table), nil)
	}
	return &Prober{dsn: dsn, table: table}, nil
}

// Target returns a credential-free label for error messages and logs.
func (p *Prober) Target() string {
	if u, err := url.Parse(p.dsn); err == nil && u.Host != "" {
		return u.Host + u.Path
	}
	return "postgres"
}

// Probe connects, verifies reachability, and reads the tracking table. Each
// probe uses a fresh connection; a check is a single shot, not a pool.
func (p *Prober) Probe(ctx context.Context) ([]tracking.Record, error) {
	db, err := sql.Open("postgres", p.dsn)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "tracking", "postgres", fmt.Sprintf("open %s", p.Target()), err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, p.classify("ping", err)
	}

	records, err := p.query(ctx, db, true)
	if err == nil {
		return records, nil
	}
	if isPQCode(err, codeUndefinedColumn) {
		// Tracking table without an applied_at column; fall back to versions only.
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
		if isPQCode(err, codeUndefinedTable) {
			return nil, services.Wrap(services.ErrSchemaMissing, "tracking", "postgres",
				fmt.Sprintf("table %s does not exist on %s", p.table, p.Target()), err)
		}
		if isPQCode(err, codeUndefinedColumn) {
			return nil, err
		}
		return nil, p.classify("query tracking table", err)
	}
	defer rows.Close()

	var records []tracking.Record
	for rows.Next() {
		var record tracking.Record
		if withTimestamps {
			var appliedAt sql.NullTime
			if err := rows.Scan(&record.Version, &appliedAt); err != nil {
				return nil, services.Wrap(services.ErrConnection, "tracking", "postgres", "scan tracking row", err)
			}
			record.AppliedAt = appliedAt.Time
		} else {
			if err := rows.Scan(&record.Version); err != nil {
				return nil, services.Wrap(services.ErrConnection, "tracking", "postgres", "scan tracking row", err)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, p.classify("read tracking rows", err)
	}
	return records, nil
}

// classify maps low-level failures onto the error taxonomy. Deadline
// expiration becomes ErrTimeout so callers report "unknown" instead of
// guessing; everything else on the wire is a connection failure.
func (p *Prober) classify(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "tracking", "postgres",
			fmt.Sprintf("%s on %s", operation, p.Target()), err)
	}
	return services.Wrap(services.ErrConnection, "tracking", "postgres",
		fmt.Sprintf("%s on %s", operation, p.Target()), err)
}

func isPQCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}
