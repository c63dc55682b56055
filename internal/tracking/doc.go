// Package tracking defines the applied-migration prober contract and its
// shared record type. Driver implementations live in the postgres and sqlite
// subpackages.
//
// The exact tracking mechanism (table name, column set) is an external
// contract owned by whatever migration tooling manages the target database.
// The probers here default to the schema_migrations(version, applied_at)
// convention and degrade to version-only tables, but they never invent one.
package tracking
