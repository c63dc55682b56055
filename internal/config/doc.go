// Package config loads, normalizes, and validates driftwatch configuration.
//
// Configuration comes from a TOML file (~/.config/driftwatch/config.toml, a
// project-local driftwatch.toml, or an explicit --config path). Database
// credentials and the migrations directory are always passed into components
// explicitly from here; nothing reads ambient process state except the
// DRIFTWATCH_DATABASE_URL fallback resolved during normalization.
package config
