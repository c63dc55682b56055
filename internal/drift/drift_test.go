package drift

import (
	"reflect"
	"testing"

	"driftwatch/internal/inventory"
	"driftwatch/internal/tracking"
)

func inv(versions ...string) []inventory.Migration {
	out := make([]inventory.Migration, len(versions))
	for i, v := range versions {
		out[i] = inventory.Migration{Version: v, Name: "m" + v, Filename: v + "_m" + v + ".sql"}
	}
	return out
}

func applied(versions ...string) []tracking.Record {
	out := make([]tracking.Record, len(versions))
	for i, v := range versions {
		out[i] = tracking.Record{Version: v}
	}
	return out
}

func TestDiffEmptyAppliedMissesEverything(t *testing.T) {
	delta := Diff(inv("v1", "v2", "v3"), nil)
	if got := delta.MissingVersions(); !reflect.DeepEqual(got, []string{"v1", "v2", "v3"}) {
		t.Fatalf("missing = %v", got)
	}
	if delta.InSync() {
		t.Fatal("expected out of sync")
	}
}

func TestDiffIdenticalSetsAreInSync(t *testing.T) {
	delta := Diff(inv("v1", "v2"), applied("v1", "v2"))
	if len(delta.Missing) != 0 || !delta.InSync() {
		t.Fatalf("delta = %+v", delta)
	}
	if delta.Outcome(false) != OutcomeInSync {
		t.Fatalf("outcome = %v", delta.Outcome(false))
	}
}

func TestDiffPartialApplied(t *testing.T) {
	delta := Diff(inv("v1", "v2", "v3"), applied("v1", "v2"))
	if got := delta.MissingVersions(); !reflect.DeepEqual(got, []string{"v3"}) {
		t.Fatalf("missing = %v", got)
	}
	if delta.InSync() {
		t.Fatal("expected out of sync")
	}
	if delta.Outcome(false) != OutcomeDrift {
		t.Fatalf("outcome = %v", delta.Outcome(false))
	}
}

func TestDiffPreservesInventoryOrder(t *testing.T) {
	// Applied order must not influence missing order.
	delta := Diff(inv("v1", "v2", "v3", "v4"), applied("v3"))
	if got := delta.MissingVersions(); !reflect.DeepEqual(got, []string{"v1", "v2", "v4"}) {
		t.Fatalf("missing = %v", got)
	}
}

func TestDiffUnexpectedApplied(t *testing.T) {
	delta := Diff(inv("v1"), applied("v1", "v9"))
	if got := delta.UnexpectedVersions(); !reflect.DeepEqual(got, []string{"v9"}) {
		t.Fatalf("unexpected = %v", got)
	}
	// Unexpected alone is a warning, not drift.
	if !delta.InSync() || delta.Outcome(false) != OutcomeInSync {
		t.Fatalf("delta = %+v", delta)
	}
	// Unless strict mode opts in.
	if delta.Outcome(true) != OutcomeDrift {
		t.Fatalf("strict outcome = %v", delta.Outcome(true))
	}
}

func TestDiffEmptyInventory(t *testing.T) {
	delta := Diff(nil, applied("v1"))
	if len(delta.Missing) != 0 {
		t.Fatalf("missing = %v", delta.MissingVersions())
	}
	if len(delta.Unexpected) != 1 {
		t.Fatalf("unexpected = %v", delta.UnexpectedVersions())
	}
}

func TestSummary(t *testing.T) {
	if got := Diff(inv("v1"), applied("v1")).Summary(); got != "in sync (1 migrations applied)" {
		t.Fatalf("summary = %q", got)
	}
	if got := Diff(inv("v1", "v2"), applied("v1")).Summary(); got != "1 of 2 migrations missing" {
		t.Fatalf("summary = %q", got)
	}
}

func TestDisplayTitle(t *testing.T) {
	if got := DisplayTitle("create_user_index"); got != "Create User Index" {
		t.Fatalf("got %q", got)
	}
	if got := DisplayTitle("add-orders"); got != "Add Orders" {
		t.Fatalf("got %q", got)
	}
}
