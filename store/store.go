package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/pagecache/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// Migrate creates the schema if needed.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// CreateEntry inserts an entry, filling UID and timestamps when unset.
func (s *Store) CreateEntry(ctx context.Context, create *Entry) (*Entry, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.RowStatus == "" {
		create.RowStatus = Normal
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	if create.UpdatedTs == 0 {
		create.UpdatedTs = create.CreatedTs
	}
	return s.driver.CreateEntry(ctx, create)
}

// CountEntries counts entries against the live database.
func (s *Store) CountEntries(ctx context.Context, find *FindEntry) (int64, error) {
	return s.driver.CountEntries(ctx, nil, find)
}

// ListEntries lists entries against the live database.
func (s *Store) ListEntries(ctx context.Context, find *FindEntry) ([]*Entry, error) {
	return s.driver.ListEntries(ctx, nil, find)
}

func (s *Store) DeleteEntry(ctx context.Context, delete *DeleteEntry) error {
	return s.driver.DeleteEntry(ctx, delete)
}
