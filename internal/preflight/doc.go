// Package preflight provides readiness checks for the database and
// filesystem paths that driftwatch depends on.
//
// These checks run in two contexts:
//   - The watch loop calls RunAll before its first check cycle. If any
//     check fails, the loop refuses to start rather than produce a stream
//     of misleading "unknown" outcomes.
//   - The CLI "driftwatch preflight" command uses RunAll to display
//     environment health before a deploy gate is wired up.
//
// An absent tracking table is not a failure here; it just means the
// target database has never been migrated.
package preflight
