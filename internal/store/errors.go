package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Sentinel errors for common durable-store conditions.
var (
	// ErrNotFound indicates the requested row was not found.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a unique-constraint violation.
	ErrConflict = errors.New("conflict")

	// ErrCASFailed indicates a compare-and-swap status transition did
	// not apply because the current status no longer matched the
	// expected precondition (another runner already claimed the unit,
	// or it finished/failed concurrently).
	ErrCASFailed = errors.New("status transition rejected")
)

// wrapDBError wraps a database error with operation context, mapping
// sql.ErrNoRows to ErrNotFound so callers can errors.Is against one
// sentinel regardless of the underlying driver.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
