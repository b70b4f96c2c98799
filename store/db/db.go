package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/pagecache/internal/profile"
	"github.com/hrygo/pagecache/store"
	"github.com/hrygo/pagecache/store/db/postgres"
	"github.com/hrygo/pagecache/store/db/sqlite"
)

// Supported drivers:
//
// SQLite: the default, zero-setup backend; snapshots are pinned deferred
// read transactions under WAL.
// PostgreSQL: for shared deployments; snapshots are REPEATABLE READ
// read-only transactions.

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'sqlite' and 'postgres' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
