package pager

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// capacityForWindow derives the page cache capacity from the prefetch
// window: enough room for a covering page plus a full window on both sides,
// with one spare slot per side. The window never shrinks, so the capacity
// only grows.
func capacityForWindow(window int64) int {
	return int(2*window + 3)
}

// pageCache is the bounded page index -> page mapping. Eviction is plain
// LRU: a Get refreshes recency, so the pages the owner is actually reading
// survive prefetch churn. Re-adding a cached page overwrites it, which is
// harmless since pages of one snapshot never change.
type pageCache[T any] struct {
	lru *lru.Cache[int64, []T]
}

func newPageCache[T any](capacity int) (*pageCache[T], error) {
	c, err := lru.New[int64, []T](capacity)
	if err != nil {
		return nil, errors.Wrap(err, "page cache")
	}
	return &pageCache[T]{lru: c}, nil
}

func (c *pageCache[T]) get(page int64) ([]T, bool) {
	if page < 0 {
		return nil, false
	}
	return c.lru.Get(page)
}

func (c *pageCache[T]) contains(page int64) bool {
	return c.lru.Contains(page)
}

func (c *pageCache[T]) add(page int64, elems []T) {
	c.lru.Add(page, elems)
}

func (c *pageCache[T]) resize(capacity int) {
	c.lru.Resize(capacity)
}

func (c *pageCache[T]) len() int {
	return c.lru.Len()
}
