// Package services holds the error taxonomy and context annotations shared by
// the reconciliation components.
//
// Errors are tagged with sentinel markers (ErrNotFound, ErrConnection,
// ErrSchemaMissing, ...) via Wrap so callers can classify failures with
// errors.Is without string matching. The distinction matters operationally: a
// missing tracking table means zero migrations were ever applied, while a
// connection failure means the check could not run at all. Collapsing the two
// into an empty result is exactly the failure mode this tool exists to avoid.
package services
