package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the schema if it does not exist yet.
	Migrate(ctx context.Context) error

	// OpenSnapshot pins a point-in-time read view. Queries passed a
	// non-nil snapshot run inside it; with a nil snapshot they read the
	// live database.
	OpenSnapshot(ctx context.Context) (*Snapshot, error)

	// Entry model related methods.
	CreateEntry(ctx context.Context, create *Entry) (*Entry, error)
	CountEntries(ctx context.Context, snap *Snapshot, find *FindEntry) (int64, error)
	ListEntries(ctx context.Context, snap *Snapshot, find *FindEntry) ([]*Entry, error)
	DeleteEntry(ctx context.Context, delete *DeleteEntry) error
}
