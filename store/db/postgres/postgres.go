package postgres

import (
	"context"
	"database/sql"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/pagecache/internal/profile"
	"github.com/hrygo/pagecache/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", profile.DSN)
	}

	// Each open snapshot pins one connection, so leave headroom beyond the
	// expected number of live pagers.
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{
		db:      db,
		profile: profile,
	}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// OpenSnapshot pins a REPEATABLE READ read-only transaction; PostgreSQL
// takes its snapshot at the first query, so pin it immediately.
func (d *DB) OpenSnapshot(ctx context.Context) (*store.Snapshot, error) {
	return store.NewSnapshot(ctx, d.db, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	}, "SELECT 1")
}

func (d *DB) Migrate(ctx context.Context) error {
	stmt := `
		CREATE TABLE IF NOT EXISTS entry (
			id BIGSERIAL PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			created_ts BIGINT NOT NULL DEFAULT extract(epoch from now()),
			updated_ts BIGINT NOT NULL DEFAULT extract(epoch from now()),
			row_status TEXT NOT NULL DEFAULT 'NORMAL',
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			payload TEXT NOT NULL DEFAULT '{}'
		);
		CREATE INDEX IF NOT EXISTS idx_entry_order ON entry (created_ts DESC, id DESC);
	`
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to create entry table")
	}
	return nil
}
