// Package history persists check outcomes in a local SQLite database so
// operators can review past runs and track when drift first appeared.
package history
