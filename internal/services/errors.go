package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks failures to read the migration inventory source.
	// These are fatal configuration problems and are never retried.
	ErrNotFound = errors.New("not found")
	// ErrConnection marks failures to reach the target database. Callers may
	// retry these a bounded number of times before surfacing them.
	ErrConnection = errors.New("connection error")
	// ErrSchemaMissing marks a reachable database whose migration tracking
	// table does not exist. This is a legitimate terminal state (zero
	// migrations ever applied), not a connectivity problem.
	ErrSchemaMissing = errors.New("tracking table missing")
	// ErrTimeout marks probes that exceeded their deadline. The check outcome
	// is unknown; it must not be reported as either in-sync or drifted.
	ErrTimeout = errors.New("timeout")
	// ErrValidation marks malformed inventory contents (duplicate versions,
	// unparseable filenames).
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration discovered at run time.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrConnection
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether an error is worth retrying. Only connection
// failures qualify; inventory and schema errors are terminal.
func Retryable(err error) bool {
	return errors.Is(err, ErrConnection)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "check failure"
	}
	return strings.Join(parts, ": ")
}
