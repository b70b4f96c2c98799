package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/pagecache/pager"
	"github.com/hrygo/pagecache/store"
)

func TestEntryPagerWalk(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	want := seedEntries(ctx, t, ts, 250)

	ep, err := ts.NewEntryPager(ctx, nil, pager.Options{PageSize: 100, Window: 2, MaxWindow: 5})
	require.NoError(t, err)
	defer ep.Close()

	require.EqualValues(t, 250, ep.Count())
	require.EqualValues(t, 3, ep.PageCount())
	require.NotEmpty(t, ep.SnapshotID())

	for i := int64(0); i < ep.Count(); i++ {
		entry, err := ep.Get(ctx, i)
		require.NoError(t, err)
		require.Equal(t, want[i].UID, entry.UID, "index %d", i)
	}

	// The same walk again returns identical values from the same snapshot.
	for i := int64(0); i < ep.Count(); i++ {
		entry, err := ep.Get(ctx, i)
		require.NoError(t, err)
		require.Equal(t, want[i].UID, entry.UID, "index %d", i)
	}
}

func TestEntryPagerSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	want := seedEntries(ctx, t, ts, 10)

	ep, err := ts.NewEntryPager(ctx, nil, pager.Options{PageSize: 4})
	require.NoError(t, err)
	defer ep.Close()
	require.EqualValues(t, 10, ep.Count())

	// Writes after the snapshot was pinned stay invisible to the pager.
	for i := 0; i < 5; i++ {
		_, err := ts.CreateEntry(ctx, &store.Entry{
			Title:     "late arrival",
			Payload:   "{}",
			CreatedTs: 2000,
		})
		require.NoError(t, err)
	}

	live, err := ts.CountEntries(ctx, &store.FindEntry{})
	require.NoError(t, err)
	require.EqualValues(t, 15, live)

	require.EqualValues(t, 10, ep.Count())
	first, err := ep.Get(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, want[0].UID, first.UID)

	// A fresh pager sees a fresh snapshot.
	ep2, err := ts.NewEntryPager(ctx, nil, pager.Options{PageSize: 4})
	require.NoError(t, err)
	defer ep2.Close()
	require.EqualValues(t, 15, ep2.Count())
}

func TestEntryPagerWithFilter(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	seedEntries(ctx, t, ts, 20)

	after := int64(1009)
	ep, err := ts.NewEntryPager(ctx, &store.FindEntry{CreatedAfter: &after}, pager.Options{PageSize: 3})
	require.NoError(t, err)
	defer ep.Close()

	require.EqualValues(t, 10, ep.Count())
	newest, err := ep.Get(ctx, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1019, newest.CreatedTs)
	oldest, err := ep.Get(ctx, 9)
	require.NoError(t, err)
	require.EqualValues(t, 1010, oldest.CreatedTs)
}

func TestEntryPagerRejectsCallerPagination(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	limit := 5
	_, err := ts.NewEntryPager(ctx, &store.FindEntry{Limit: &limit}, pager.Options{})
	require.Error(t, err)
}
