// Package reconcile runs the reconciliation pass that ties the pipeline
// together: scan the migration inventory, probe the target database's
// tracking table (with bounded retry on connection failures), and diff the
// two into a Report.
//
// The pass is a single synchronous call sequence. The only concurrency
// concern is the probe timeout, and a timed-out probe yields OutcomeUnknown
// rather than a guess in either direction.
package reconcile
