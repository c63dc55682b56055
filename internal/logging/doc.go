// Package logging wires slog with the console and JSON handlers used across
// driftwatch, plus attribute helpers and standardized field names so run IDs
// and database targets appear consistently in every log line.
package logging
