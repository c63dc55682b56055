// Package inventory enumerates the expected migrations from a source-of-truth
// directory, ordered by version. It performs no database access and has no
// side effects.
package inventory
