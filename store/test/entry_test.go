package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/pagecache/store"
)

func TestEntryStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created, err := ts.CreateEntry(ctx, &store.Entry{
		Title:   "hello",
		Content: "world",
		Payload: "{}",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.NotEmpty(t, created.UID)
	require.Equal(t, store.Normal, created.RowStatus)
	require.NotZero(t, created.CreatedTs)

	count, err := ts.CountEntries(ctx, &store.FindEntry{})
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	list, err := ts.ListEntries(ctx, &store.FindEntry{UID: &created.UID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "hello", list[0].Title)

	require.NoError(t, ts.DeleteEntry(ctx, &store.DeleteEntry{ID: created.ID}))
	require.Error(t, ts.DeleteEntry(ctx, &store.DeleteEntry{ID: created.ID}))
}

func TestEntryListOrdering(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	want := seedEntries(ctx, t, ts, 25)

	list, err := ts.ListEntries(ctx, &store.FindEntry{})
	require.NoError(t, err)
	require.Len(t, list, 25)
	for i, entry := range list {
		require.Equal(t, want[i].UID, entry.UID, "position %d", i)
	}
}

func TestEntryListPagination(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	want := seedEntries(ctx, t, ts, 25)

	limit, offset := 10, 20
	list, err := ts.ListEntries(ctx, &store.FindEntry{Limit: &limit, Offset: &offset})
	require.NoError(t, err)
	require.Len(t, list, 5)
	for i, entry := range list {
		require.Equal(t, want[20+i].UID, entry.UID, "position %d", i)
	}
}

func TestEntryFilters(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	seedEntries(ctx, t, ts, 10)

	after := int64(1005)
	count, err := ts.CountEntries(ctx, &store.FindEntry{CreatedAfter: &after})
	require.NoError(t, err)
	require.EqualValues(t, 4, count)

	before := int64(1003)
	list, err := ts.ListEntries(ctx, &store.FindEntry{CreatedBefore: &before})
	require.NoError(t, err)
	require.Len(t, list, 3)
}
