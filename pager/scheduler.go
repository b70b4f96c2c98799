package pager

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// scheduler is the pager's background sequencer: a FIFO queue of page
// indices executed by exactly one worker goroutine, so at most one
// background fetch runs against the shared snapshot at any moment.
//
// drain drops everything not yet started. A task the worker has already
// picked up is past draining; it can only be aborted through the snapshot's
// Interrupt, and its late result is discarded at delivery time.
type scheduler struct {
	exec    func(ctx context.Context, page int64)
	limiter *rate.Limiter
	wake    chan struct{}

	mu    sync.Mutex
	queue []int64
}

func newScheduler(ctx context.Context, fetchRate rate.Limit, exec func(ctx context.Context, page int64)) *scheduler {
	s := &scheduler{
		exec: exec,
		wake: make(chan struct{}, 1),
	}
	if fetchRate > 0 {
		s.limiter = rate.NewLimiter(fetchRate, 1)
	}
	go s.run(ctx)
	return s
}

// enqueue appends pages to the queue in the given order and wakes the
// worker. The caller is responsible for deduplication.
func (s *scheduler) enqueue(pages ...int64) {
	if len(pages) == 0 {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, pages...)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// drain discards all queued, not-yet-started tasks.
func (s *scheduler) drain() {
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
}

func (s *scheduler) next() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return 0, false
	}
	page := s.queue[0]
	s.queue = s.queue[1:]
	return page, true
}

func (s *scheduler) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}
		for {
			page, ok := s.next()
			if !ok {
				break
			}
			if ctx.Err() != nil {
				return
			}
			if s.limiter != nil {
				if err := s.limiter.Wait(ctx); err != nil {
					return
				}
			}
			s.exec(ctx, page)
		}
	}
}
