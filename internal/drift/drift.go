package drift

import (
	"fmt"

	"driftwatch/internal/inventory"
	"driftwatch/internal/tracking"
)

// Outcome classifies the result of a reconciliation check.
type Outcome string

const (
	// OutcomeInSync means every inventory migration is recorded as applied.
	OutcomeInSync Outcome = "in_sync"
	// OutcomeDrift means at least one inventory migration is missing from the
	// database (or, with strict mode, an unexpected migration was applied).
	OutcomeDrift Outcome = "drift"
	// OutcomeUnknown means the check could not establish either state, for
	// example because the probe timed out. It is deliberately distinct from
	// both in-sync and drift.
	OutcomeUnknown Outcome = "unknown"
)

// Delta is the result of comparing the migration inventory against the
// applied-migration records. It is computed by a pure set difference and has
// no error conditions of its own.
type Delta struct {
	// Missing lists inventory migrations absent from the applied records,
	// preserving inventory order.
	Missing []inventory.Migration
	// Unexpected lists applied records whose version does not appear in the
	// inventory. This can happen when code containing a migration is rolled
	// back after the migration ran. It is a warning, not drift, unless the
	// caller opts into strict mode.
	Unexpected []tracking.Record
	// InventoryCount and AppliedCount record the sizes of the two inputs.
	InventoryCount int
	AppliedCount   int
}

// Diff computes the delta between the expected inventory and the applied
// records. Missing preserves the inventory's ordering; Unexpected preserves
// the applied records' ordering.
func Diff(inv []inventory.Migration, applied []tracking.Record) Delta {
	appliedSet := make(map[string]struct{}, len(applied))
	for _, record := range applied {
		appliedSet[record.Version] = struct{}{}
	}

	inventorySet := make(map[string]struct{}, len(inv))
	for _, migration := range inv {
		inventorySet[migration.Version] = struct{}{}
	}

	delta := Delta{
		InventoryCount: len(inv),
		AppliedCount:   len(applied),
	}
	for _, migration := range inv {
		if _, ok := appliedSet[migration.Version]; !ok {
			delta.Missing = append(delta.Missing, migration)
		}
	}
	for _, record := range applied {
		if _, ok := inventorySet[record.Version]; !ok {
			delta.Unexpected = append(delta.Unexpected, record)
		}
	}
	return delta
}

// InSync reports whether the inventory is fully applied. Unexpected applied
// migrations do not affect this; see Outcome for strict handling.
func (d Delta) InSync() bool {
	return len(d.Missing) == 0
}

// Outcome classifies the delta. With strictUnexpected set, unexpected applied
// migrations count as drift rather than a warning.
func (d Delta) Outcome(strictUnexpected bool) Outcome {
	if len(d.Missing) > 0 {
		return OutcomeDrift
	}
	if strictUnexpected && len(d.Unexpected) > 0 {
		return OutcomeDrift
	}
	return OutcomeInSync
}

// Summary renders a one-line operator-facing description of the delta.
func (d Delta) Summary() string {
	switch {
	case len(d.Missing) == 0 && len(d.Unexpected) == 0:
		return fmt.Sprintf("in sync (%d migrations applied)", d.AppliedCount)
	case len(d.Missing) == 0:
		return fmt.Sprintf("in sync with %d unexpected applied migration(s)", len(d.Unexpected))
	default:
		return fmt.Sprintf("%d of %d migrations missing", len(d.Missing), d.InventoryCount)
	}
}

// MissingVersions returns the version identifiers of the missing migrations,
// in inventory order.
func (d Delta) MissingVersions() []string {
	out := make([]string, len(d.Missing))
	for i, m := range d.Missing {
		out[i] = m.Version
	}
	return out
}

// UnexpectedVersions returns the version identifiers of the unexpected applied
// records.
func (d Delta) UnexpectedVersions() []string {
	out := make([]string, len(d.Unexpected))
	for i, r := range d.Unexpected {
		out[i] = r.Version
	}
	return out
}
