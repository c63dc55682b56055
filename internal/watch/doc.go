// Package watch runs reconciliation checks on an interval, records the
// outcomes, and raises notifications when the schema drifts or recovers.
//
// A flock-backed lock file keeps a second watch process from double-probing
// the same target and double-sending alerts. Notifications fire only on
// outcome transitions, so a schema that stays drifted for a week produces
// one alert, not one per cycle.
package watch
