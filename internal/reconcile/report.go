package reconcile

import (
	"time"

	"driftwatch/internal/drift"
	"driftwatch/internal/tracking"
)

// MissingMigration is one inventory entry absent from the applied records.
type MissingMigration struct {
	Version  string `json:"version"`
	Name     string `json:"name"`
	Filename string `json:"filename"`
}

// UnexpectedMigration is one applied record absent from the inventory.
type UnexpectedMigration struct {
	Version   string    `json:"version"`
	AppliedAt time.Time `json:"applied_at,omitzero"`
}

// Report is the result of one reconciliation pass. It is transient: computed
// on demand, optionally recorded to history, never mutated afterwards.
type Report struct {
	RunID                string                `json:"run_id"`
	Target               string                `json:"target"`
	CheckedAt            time.Time             `json:"checked_at"`
	FinishedAt           time.Time             `json:"finished_at"`
	Outcome              drift.Outcome         `json:"outcome"`
	InSync               bool                  `json:"in_sync"`
	TrackingTableMissing bool                  `json:"tracking_table_missing"`
	InventoryCount       int                   `json:"inventory_count"`
	AppliedCount         int                   `json:"applied_count"`
	MissingCount         int                   `json:"missing_count"`
	Missing              []MissingMigration    `json:"missing"`
	Unexpected           []UnexpectedMigration `json:"unexpected,omitempty"`
	Summary              string                `json:"summary"`
	Error                string                `json:"error,omitempty"`
}

func newReport(runID, target string, startedAt time.Time, outcome drift.Outcome, delta drift.Delta, tableMissing bool) *Report {
	report := &Report{
		RunID:                runID,
		Target:               target,
		CheckedAt:            startedAt,
		FinishedAt:           time.Now().UTC(),
		Outcome:              outcome,
		InSync:               outcome == drift.OutcomeInSync,
		TrackingTableMissing: tableMissing,
		InventoryCount:       delta.InventoryCount,
		AppliedCount:         delta.AppliedCount,
		MissingCount:         len(delta.Missing),
		Missing:              make([]MissingMigration, 0, len(delta.Missing)),
		Summary:              summarize(outcome, delta, tableMissing),
	}
	for _, m := range delta.Missing {
		report.Missing = append(report.Missing, MissingMigration{
			Version:  m.Version,
			Name:     m.Name,
			Filename: m.Filename,
		})
	}
	for _, r := range delta.Unexpected {
		report.Unexpected = append(report.Unexpected, unexpectedFromRecord(r))
	}
	return report
}

func unexpectedFromRecord(r tracking.Record) UnexpectedMigration {
	return UnexpectedMigration{Version: r.Version, AppliedAt: r.AppliedAt}
}

func summarize(outcome drift.Outcome, delta drift.Delta, tableMissing bool) string {
	if outcome == drift.OutcomeUnknown {
		return "check outcome unknown"
	}
	if tableMissing {
		return "tracking table absent: zero migrations applied, " + delta.Summary()
	}
	return delta.Summary()
}
