package pager

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type execLog struct {
	mu    sync.Mutex
	pages []int64
}

func (l *execLog) record(page int64) {
	l.mu.Lock()
	l.pages = append(l.pages, page)
	l.mu.Unlock()
}

func (l *execLog) snapshot() []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.pages)
}

func TestSchedulerExecutesFIFO(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := &execLog{}
	s := newScheduler(ctx, 0, func(_ context.Context, page int64) { log.record(page) })

	s.enqueue(3, 1, 2)
	s.enqueue(7)

	require.Eventually(t, func() bool { return len(log.snapshot()) == 4 }, 5*time.Second, time.Millisecond)
	if diff := cmp.Diff([]int64{3, 1, 2, 7}, log.snapshot()); diff != "" {
		t.Fatalf("execution order (-want +got):\n%s", diff)
	}
}

func TestSchedulerDrainDropsUnstartedTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := &execLog{}
	started := make(chan struct{})
	gate := make(chan struct{})
	s := newScheduler(ctx, 0, func(_ context.Context, page int64) {
		if page == 3 {
			close(started)
			<-gate
		}
		log.record(page)
	})

	s.enqueue(3, 1, 2)
	<-started

	// 3 is already executing and past draining; 1 and 2 are not.
	s.drain()
	close(gate)

	require.Eventually(t, func() bool { return len(log.snapshot()) == 1 }, 5*time.Second, time.Millisecond)
	require.Never(t, func() bool { return len(log.snapshot()) > 1 }, 100*time.Millisecond, 10*time.Millisecond)
	require.Equal(t, []int64{3}, log.snapshot())
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	log := &execLog{}
	s := newScheduler(ctx, 0, func(_ context.Context, page int64) { log.record(page) })
	cancel()

	// Give the worker a moment to observe cancellation, then enqueue.
	time.Sleep(10 * time.Millisecond)
	s.enqueue(1, 2, 3)
	require.Never(t, func() bool { return len(log.snapshot()) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}
