package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"driftwatch/internal/config"
	"driftwatch/internal/services"
	"driftwatch/internal/tracking"
)

// CheckMigrationsDir verifies that the migration inventory exists and is readable.
func CheckMigrationsDir(path string) Result {
	const name = "Migrations directory"

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// CheckStateDir verifies that the state directory exists and is writable.
// History runs and the watch lock both live here.
func CheckStateDir(path string) Result {
	const name = "State directory"

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist, run any check to create it)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDatabase verifies that the tracking database answers a probe.
// An absent tracking table still counts as reachable; it means no
// migrations have been applied yet, not that the database is down.
func CheckDatabase(ctx context.Context, cfg *config.Config, prober tracking.Prober) Result {
	const name = "Database"

	timeout := time.Duration(cfg.Check.ProbeTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	records, err := prober.Probe(checkCtx)
	switch {
	case err == nil:
		return Result{
			Name:   name,
			Passed: true,
			Detail: fmt.Sprintf("%s (reachable, %d migrations recorded)", prober.Target(), len(records)),
		}
	case errors.Is(err, services.ErrSchemaMissing):
		return Result{
			Name:   name,
			Passed: true,
			Detail: fmt.Sprintf("%s (reachable, tracking table not created yet)", prober.Target()),
		}
	case errors.Is(err, services.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: probe timed out)", prober.Target())}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", prober.Target(), err)}
	}
}
