package preflight

import (
	"context"

	"driftwatch/internal/config"
	"driftwatch/internal/tracking"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The prober may be nil, in which case the database check is skipped.
func RunAll(ctx context.Context, cfg *config.Config, prober tracking.Prober) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckMigrationsDir(cfg.Paths.MigrationsDir))
	results = append(results, CheckStateDir(cfg.Paths.StateDir))

	if prober != nil {
		results = append(results, CheckDatabase(ctx, cfg, prober))
	}

	return results
}

// AllPassed reports whether every check in the slice succeeded.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
