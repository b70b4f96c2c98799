// Package pager provides a paginated, prefetching result cache over a large
// ordered query result bound to one point-in-time snapshot.
//
// A Pager exposes random access to the elements of the result without
// materializing it in memory. Elements are fetched in fixed-size pages and
// kept in a bounded LRU cache whose capacity follows an adaptive prefetch
// window. A cache miss blocks the caller for one synchronous page fetch and
// preempts any background work; around every access the pager schedules
// asynchronous fetches of the neighboring pages on a single background
// worker.
//
// The pager is bound to one immutable snapshot for its entire lifetime: the
// total element count is computed once at construction and never changes,
// and every returned element is consistent with that snapshot. It performs
// no writes and provides no invalidation.
//
// A Pager must be driven by a single goroutine. Get, Prefetch and
// CancelPrefetch are owner operations; calling them concurrently is a
// programming error and panics.
package pager
