package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/roman-kulish/antenna-analyzer/internal/sweep"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

// rollbackWithError is deferred around write transactions; after a successful
// commit the rollback reports ErrTxDone, which is not a failure.
func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if rErr := rb.Rollback(); rErr != nil && !errors.Is(rErr, sql.ErrTxDone) && *err == nil {
		*err = rErr
	}
}

func statusToString(s sweep.Status) string {
	return s.String()
}

func statusFromString(s string) (sweep.Status, error) {
	switch s {
	case sweep.StatusCompleted.String():
		return sweep.StatusCompleted, nil
	case sweep.StatusCancelled.String():
		return sweep.StatusCancelled, nil
	case sweep.StatusFaulted.String():
		return sweep.StatusFaulted, nil
	default:
		return 0, fmt.Errorf("unknown sweep status %q", s)
	}
}
