// Package storage persists analyzer sessions, sweep results and ratings to
// a local SQLite database.
package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/antenna-analyzer/internal/rating"
	"github.com/roman-kulish/antenna-analyzer/internal/sweep"
)

// Store manages analyzer data storage. Writes are atomic: a sweep and its
// points land in a single transaction.
type Store interface {
	// CreateSession initializes a new test session and returns its unique
	// identifier. config may be a string, []byte, or any JSON-serializable
	// value and is kept for later reproduction of the measurement setup.
	CreateSession(ctx context.Context, deviceType, deviceID string, config any) (sessionID int64, err error)

	// StoreSweep saves a sweep result with all of its measurement points,
	// including partial results of cancelled or faulted sweeps.
	StoreSweep(ctx context.Context, sessionID int64, res *sweep.Result) (sweepID int64, err error)

	// StoreRating saves the rating derived from a stored sweep.
	StoreRating(ctx context.Context, sweepID int64, r *rating.Rating) error

	// Sweep loads a stored sweep result with its points in frequency order.
	Sweep(ctx context.Context, sweepID int64) (*sweep.Result, error)

	// Rating loads the rating stored for a sweep, or nil if absent.
	Rating(ctx context.Context, sweepID int64) (*rating.Rating, error)

	// Close releases all database connections. Safe to call multiple
	// times; the store cannot be reused afterwards.
	Close() error
}

// New creates a SQLite-backed Store at the given path.
func New(dbPath string) Store {
	return newSqliteStore(dbPath)
}
