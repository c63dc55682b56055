package tracking

import (
	"context"
	"regexp"
	"time"
)

// Record is one applied-migration entry from the target database's tracking
// table. AppliedAt is zero when the tracking mechanism does not record
// timestamps.
type Record struct {
	Version   string
	AppliedAt time.Time
}

// Prober queries a target database for the migrations it considers applied.
//
// Implementations tag their errors with the services sentinel markers:
// ErrConnection when the database is unreachable, ErrSchemaMissing when the
// tracking table itself does not exist (zero migrations ever applied), and
// ErrTimeout when the probe deadline expired. A prober never converts a
// failure into an empty record set.
type Prober interface {
	Probe(ctx context.Context) ([]Record, error)
	Target() string
}

// tableNamePattern permits plain and schema-qualified SQL identifiers. The
// tracking table name is configuration interpolated into queries, so it is
// restricted rather than escaped.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidTableName reports whether name is safe to interpolate as a tracking
// table identifier.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}
