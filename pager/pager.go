package pager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Default geometry used when Options fields are left zero.
const (
	DefaultPageSize  = 100
	DefaultWindow    = 1
	DefaultMaxWindow = 10
)

// ErrClosed is returned by Get after the pager has been closed.
var ErrClosed = errors.New("pager: closed")

// Source produces the ordered elements of the underlying result set.
// Count is called exactly once, at construction. FetchPage must return the
// elements [offset, offset+limit) of the result in result order; it may be
// called from the owner goroutine or from the pager's background worker, but
// never concurrently with itself.
type Source[T any] interface {
	Count(ctx context.Context) (int64, error)
	FetchPage(ctx context.Context, offset, limit int64) ([]T, error)
}

// Snapshot is the pager's handle on the point-in-time view the Source reads
// from. Interrupt requests abort of whatever read is currently executing on
// that view; it is best effort and may arrive too late to stop the read.
type Snapshot interface {
	Interrupt()
}

// Options configures a Pager. The zero value selects the defaults above.
type Options struct {
	// PageSize is the number of elements fetched per page.
	PageSize int64
	// Window is the initial prefetch window: how many extra pages are
	// scheduled beyond a requested range. The window grows by one on every
	// cache miss, up to MaxWindow, and never shrinks.
	Window int64
	// MaxWindow caps the prefetch window.
	MaxWindow int64
	// FetchRate throttles background page fetches. Zero means unthrottled.
	// The synchronous miss path is never throttled.
	FetchRate rate.Limit
}

func (o *Options) normalize() {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.MaxWindow <= 0 {
		o.MaxWindow = DefaultMaxWindow
	}
	if o.MaxWindow < o.Window {
		o.MaxWindow = o.Window
	}
}

// Stats reports cache effectiveness for the owner's Get calls.
type Stats struct {
	Hits   int64
	Misses int64
}

// Pager is a snapshot-consistent, prefetching page cache over an ordered
// result set. See the package documentation for the access contract.
type Pager[T any] struct {
	src  Source[T]
	snap Snapshot

	pageSize  int64
	count     int64
	pageCount int64
	maxWindow int64

	// ownerGate trips when two goroutines drive the pager at once. It is
	// held for the whole duration of every owner operation, including the
	// synchronous miss fetch.
	ownerGate sync.Mutex

	// mu guards the state below. The owner goroutine and the worker's
	// deliver/release callbacks are the only writers.
	mu       sync.Mutex
	window   int64
	pages    *pageCache[T]
	inflight map[int64]struct{}
	hits     int64
	misses   int64
	closed   bool

	sched  *scheduler
	cancel context.CancelFunc
}

// New builds a Pager over src bound to snap. It runs the count query against
// the snapshot immediately; if that fails no pager is created.
func New[T any](ctx context.Context, src Source[T], snap Snapshot, opts Options) (*Pager[T], error) {
	opts.normalize()

	count, err := src.Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "count query")
	}
	if count < 0 {
		return nil, errors.Errorf("source reported negative count %d", count)
	}

	pages, err := newPageCache[T](capacityForWindow(opts.Window))
	if err != nil {
		return nil, err
	}

	p := &Pager[T]{
		src:       src,
		snap:      snap,
		pageSize:  opts.PageSize,
		count:     count,
		pageCount: (count + opts.PageSize - 1) / opts.PageSize,
		maxWindow: opts.MaxWindow,
		window:    opts.Window,
		pages:     pages,
		inflight:  make(map[int64]struct{}),
	}

	wctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.sched = newScheduler(wctx, opts.FetchRate, p.runFetch)
	return p, nil
}

// Count returns the total number of elements, fixed at construction.
func (p *Pager[T]) Count() int64 { return p.count }

// PageSize returns the page geometry the pager was built with.
func (p *Pager[T]) PageSize() int64 { return p.pageSize }

// PageCount returns ceil(Count / PageSize).
func (p *Pager[T]) PageCount() int64 { return p.pageCount }

// Window returns the current prefetch window. It only ever grows.
func (p *Pager[T]) Window() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.window
}

// Stats returns the hit/miss counters accumulated by Get.
func (p *Pager[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{Hits: p.hits, Misses: p.misses}
}

// Get returns the element at index. index must be in [0, Count); anything
// else is a precondition violation and panics, like a slice index.
//
// On a cache hit Get returns immediately. On a miss it preempts the
// background plan (queued fetches are dropped, the executing fetch is
// interrupted and its late result discarded), grows the prefetch window,
// fetches the missing page synchronously on the calling goroutine, and then
// schedules prefetches around index.
func (p *Pager[T]) Get(ctx context.Context, index int64) (T, error) {
	p.lockOwner("Get")
	defer p.ownerGate.Unlock()

	var zero T
	if index < 0 || index >= p.count {
		panic(fmt.Sprintf("pager: index %d out of range [0, %d)", index, p.count))
	}
	page := index / p.pageSize
	local := index % p.pageSize

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return zero, ErrClosed
	}
	if elems, ok := p.pages.get(page); ok {
		p.hits++
		p.mu.Unlock()
		return elems[local], nil
	}
	p.misses++
	// Miss protocol: supersede the background plan before touching the
	// shared snapshot ourselves.
	p.sched.drain()
	clear(p.inflight)
	if p.window < p.maxWindow {
		p.window++
		p.pages.resize(capacityForWindow(p.window))
	}
	p.mu.Unlock()

	p.snap.Interrupt()

	elems, err := p.src.FetchPage(ctx, page*p.pageSize, p.pageSize)
	if err != nil {
		return zero, errors.Wrapf(err, "fetch page %d", page)
	}
	if local >= int64(len(elems)) {
		return zero, errors.Errorf("page %d holds %d elements, want index %d: source inconsistent with snapshot count", page, len(elems), local)
	}

	p.mu.Lock()
	p.pages.add(page, elems)
	p.mu.Unlock()

	p.prefetch([]int64{index})
	return elems[local], nil
}

// Prefetch hints that the elements at the given indices will be needed soon.
// It schedules background fetches for the pages covering the indices plus
// the current prefetch window around them; pages already cached or already
// scheduled are skipped. Out-of-range indices are ignored.
func (p *Pager[T]) Prefetch(indices []int64) {
	p.lockOwner("Prefetch")
	defer p.ownerGate.Unlock()
	p.prefetch(indices)
}

// CancelPrefetch hints that the elements at the given indices are no longer
// needed. It is currently inert: queued fetches are cheap to let finish, and
// the next cache miss preempts the whole queue anyway. The signature is kept
// so callers can wire symmetric hints.
func (p *Pager[T]) CancelPrefetch(indices []int64) {
	p.lockOwner("CancelPrefetch")
	defer p.ownerGate.Unlock()
	_ = indices
}

// Close stops the background worker and drops all queued work. The bound
// snapshot is not closed; it belongs to the caller.
func (p *Pager[T]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	clear(p.inflight)
	p.mu.Unlock()

	p.sched.drain()
	p.cancel()
	// Unblock a background fetch still sitting in a snapshot read.
	p.snap.Interrupt()
	return nil
}

func (p *Pager[T]) lockOwner(op string) {
	if !p.ownerGate.TryLock() {
		panic("pager: " + op + " called while another owner operation is running; the pager must be driven by a single goroutine")
	}
}

// prefetch computes the candidate page list for the given indices and hands
// the uncached, unscheduled remainder to the worker in priority order:
// covering pages first, then the trailing extension, then the leading one.
func (p *Pager[T]) prefetch(indices []int64) {
	if p.pageCount == 0 {
		return
	}
	first, last, ok := p.coveringPages(indices)
	if !ok {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	w := p.window
	candidates := make([]int64, 0, (last-first+1)+2*(w-1))
	for k := first; k <= last; k++ {
		candidates = append(candidates, k)
	}
	for k := last + 1; k <= last+w-1 && k < p.pageCount; k++ {
		candidates = append(candidates, k)
	}
	for k := max(first-w+1, 0); k <= first-1; k++ {
		candidates = append(candidates, k)
	}

	queue := candidates[:0]
	for _, k := range candidates {
		if p.pages.contains(k) {
			continue
		}
		if _, ok := p.inflight[k]; ok {
			continue
		}
		queue = append(queue, k)
	}
	for _, k := range queue {
		p.inflight[k] = struct{}{}
	}
	p.sched.enqueue(queue...)
}

// coveringPages returns the minimal page range covering the in-range indices.
func (p *Pager[T]) coveringPages(indices []int64) (first, last int64, ok bool) {
	first, last = int64(-1), int64(-1)
	for _, i := range indices {
		if i < 0 || i >= p.count {
			continue
		}
		k := i / p.pageSize
		if first == -1 || k < first {
			first = k
		}
		if k > last {
			last = k
		}
	}
	if first == -1 {
		return 0, 0, false
	}
	return first, last, true
}

// runFetch executes one background page fetch on the worker goroutine and
// marshals the result back into the shared state under mu.
func (p *Pager[T]) runFetch(ctx context.Context, page int64) {
	elems, err := p.src.FetchPage(ctx, page*p.pageSize, p.pageSize)
	if err != nil {
		// Background fetches are an optimization, never a correctness
		// dependency: leave the page absent and let a later access retry.
		slog.Warn("pager: background page fetch failed", "page", page, "error", err)
		p.release(page)
		return
	}
	p.deliver(page, elems)
}

// deliver inserts a completed background page, unless the plan that
// scheduled it has been superseded by a miss in the meantime.
func (p *Pager[T]) deliver(page int64, elems []T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.inflight[page]; !ok {
		slog.Debug("pager: discarding superseded page", "page", page)
		return
	}
	delete(p.inflight, page)
	if p.closed {
		return
	}
	p.pages.add(page, elems)
}

func (p *Pager[T]) release(page int64) {
	p.mu.Lock()
	delete(p.inflight, page)
	p.mu.Unlock()
}
