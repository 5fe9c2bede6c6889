// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// scheduler_adapter.go adapts Queue to the teacher's api.Scheduler and
// api.Cancelable contracts (kept verbatim from
// momentics-hioload-ws/api/{scheduler,result}.go), so callers already
// coded against those interfaces can drop in an equeue-backed Queue.

package equeue

import (
	"sync"
	"time"

	"github.com/skyformat99/equeue-1/api"
)

var errTaskCanceled = api.NewError(api.ErrCodeInternal, "equeue: task canceled")

// SchedulerAdapter implements api.Scheduler over a Queue.
type SchedulerAdapter struct {
	q *Queue
}

// NewSchedulerAdapter wraps q as an api.Scheduler.
func NewSchedulerAdapter(q *Queue) *SchedulerAdapter {
	return &SchedulerAdapter{q: q}
}

// Schedule posts fn to run after delayNanos nanoseconds, rounding down
// to the queue's millisecond resolution.
func (a *SchedulerAdapter) Schedule(delayNanos int64, fn func()) (api.Cancelable, error) {
	ms := delayNanos / int64(time.Millisecond)
	if ms < 0 {
		ms = 0
	}

	token := &cancelToken{q: a.q, done: make(chan struct{})}
	h := a.q.CallIn(int32(ms), func() {
		fn()
		token.finish(nil)
	})
	if h == 0 {
		return nil, newExhaustedError("equeue: scheduler queue exhausted")
	}
	token.h = h
	return token, nil
}

// Cancel cancels a Cancelable previously returned by Schedule.
func (a *SchedulerAdapter) Cancel(c api.Cancelable) error {
	t, ok := c.(*cancelToken)
	if !ok {
		return newInvalidArgError("equeue: not an equeue cancel token")
	}
	return t.Cancel()
}

// Now returns the queue's own tick source in nanoseconds, so durations
// computed from it stay consistent whether the queue runs off the
// system clock or a platform.VirtualTicker in tests.
func (a *SchedulerAdapter) Now() int64 {
	return int64(a.q.ticker.Tick()) * int64(time.Millisecond)
}

// cancelToken implements api.Cancelable for one scheduled callback.
type cancelToken struct {
	q    *Queue
	h    Handle
	done chan struct{}
	once sync.Once

	mu  sync.Mutex
	err error
}

func (t *cancelToken) finish(err error) {
	t.once.Do(func() {
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
		close(t.done)
	})
}

// Cancel implements api.Cancelable. Idempotent: cancelling a token
// whose callback already ran is a no-op (Queue.Cancel is itself a
// no-op on a stale handle).
func (t *cancelToken) Cancel() error {
	t.q.Cancel(t.h)
	t.finish(errTaskCanceled)
	return nil
}

func (t *cancelToken) Done() <-chan struct{} {
	return t.done
}

func (t *cancelToken) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
