package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/pagecache/pager"
)

// EntryPager is a snapshot-consistent paged view over the entries matching a
// filter. It owns the snapshot it is bound to: Close releases both the pager
// and the snapshot.
type EntryPager struct {
	*pager.Pager[*Entry]
	snap *Snapshot
}

// SnapshotID identifies the bound snapshot, for log correlation.
func (ep *EntryPager) SnapshotID() string {
	return ep.snap.ID()
}

// Close stops background prefetching and releases the snapshot.
func (ep *EntryPager) Close() error {
	_ = ep.Pager.Close()
	return ep.snap.Close()
}

// NewEntryPager opens a snapshot and builds a pager over the entries
// matching find. Limit and Offset on find are owned by the pager and must be
// left unset. The count query runs here; on failure no snapshot is leaked.
func (s *Store) NewEntryPager(ctx context.Context, find *FindEntry, opts pager.Options) (*EntryPager, error) {
	if find == nil {
		find = &FindEntry{}
	}
	if find.Limit != nil || find.Offset != nil {
		return nil, errors.New("find.Limit and find.Offset are owned by the pager")
	}

	snap, err := s.driver.OpenSnapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open snapshot")
	}

	src := &entrySource{driver: s.driver, snap: snap, find: find}
	p, err := pager.New[*Entry](ctx, src, snap, opts)
	if err != nil {
		_ = snap.Close()
		return nil, err
	}
	return &EntryPager{Pager: p, snap: snap}, nil
}

// entrySource adapts the driver's entry queries to the pager's Source: a
// page request (offset, limit) becomes a LIMIT/OFFSET list query against the
// bound snapshot. Stateless apart from the bound filter and snapshot.
type entrySource struct {
	driver Driver
	snap   *Snapshot
	find   *FindEntry
}

func (s *entrySource) Count(ctx context.Context) (int64, error) {
	return s.driver.CountEntries(ctx, s.snap, s.find)
}

func (s *entrySource) FetchPage(ctx context.Context, offset, limit int64) ([]*Entry, error) {
	find := *s.find
	l, o := int(limit), int(offset)
	find.Limit, find.Offset = &l, &o
	return s.driver.ListEntries(ctx, s.snap, &find)
}
