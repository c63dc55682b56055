// Package drift computes the difference between the expected migration
// inventory and the migrations a database records as applied.
//
// The comparison is pure and deterministic: a single-pass set difference that
// preserves inventory ordering. All error handling belongs to the upstream
// readers; this package cannot fail.
package drift
