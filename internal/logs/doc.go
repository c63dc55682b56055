// Package logs reads the driftwatch log file for the CLI "logs" command,
// including tail-with-limit and poll-based follow semantics.
package logs
