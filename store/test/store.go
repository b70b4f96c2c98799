package test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/pagecache/internal/profile"
	"github.com/hrygo/pagecache/store"
	"github.com/hrygo/pagecache/store/db"
)

// NewTestingStore opens a store backed by a fresh SQLite database in a
// temporary directory.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	dir := t.TempDir()
	testProfile := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		Data:   dir,
		DSN:    filepath.Join(dir, "pagecache_test.db"),
	}
	require.NoError(t, testProfile.Validate())

	dbDriver, err := db.NewDBDriver(testProfile)
	require.NoError(t, err)

	ts := store.New(dbDriver, testProfile)
	require.NoError(t, ts.Migrate(ctx))
	t.Cleanup(func() {
		if err := ts.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})
	return ts
}

// seedEntries inserts n entries with strictly increasing created_ts and
// returns them in result order (newest first).
func seedEntries(ctx context.Context, t *testing.T, ts *store.Store, n int) []*store.Entry {
	t.Helper()

	newestFirst := make([]*store.Entry, n)
	for i := 0; i < n; i++ {
		entry, err := ts.CreateEntry(ctx, &store.Entry{
			Title:     fmt.Sprintf("entry %05d", i),
			Content:   fmt.Sprintf("content of entry %d", i),
			Payload:   "{}",
			CreatedTs: int64(1000 + i),
		})
		require.NoError(t, err)
		newestFirst[n-1-i] = entry
	}
	return newestFirst
}
