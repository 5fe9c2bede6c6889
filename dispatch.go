// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// dispatch.go implements the single-dispatcher drain loop (spec.md
// §4.5). Grounded on the teacher's internal/concurrency/scheduler.go
// (mutex-guarded due work, x/sys/cpu prefetch hint before touching the
// head of the timer structure) and core/concurrency/eventloop.go's
// channel/timeout backoff shape; github.com/eapache/queue materializes
// the flat per-cycle due list so the execute phase walks a library
// queue type rather than a raw slot-index chain.

package equeue

import (
	"context"

	"github.com/eapache/queue"
	"golang.org/x/sys/cpu"

	"github.com/skyformat99/equeue-1/platform"
)

// Break causes one in-progress Dispatch call to return (spec.md §6.2).
func (q *Queue) Break() {
	q.queueMu.Lock()
	q.breaks++
	q.queueMu.Unlock()
	q.sema.Signal()
}

// prefetchPendingHead is a best-effort cache-warming touch of the
// pending chain's head slot, gated on cpu.X86.HasSSE2 the way the
// teacher's scheduler gates its own (unavailable in the real x/sys/cpu
// API) prefetch call. Unlike a real prefetch instruction this is a
// plain load with no side effect the compiler is obligated to keep;
// it is a gesture, not a guarantee.
func (q *Queue) prefetchPendingHead() {
	if cpu.X86.HasSSE2 && q.pendingHead != nilSlot {
		_ = q.slots[q.pendingHead].target
	}
}

// Dispatch drains and executes due events until ms milliseconds have
// elapsed, a matching Break call lands, or ctx is done. ms < 0 means
// run until broken or ctx is cancelled. Only one Dispatch may run on a
// given Queue at a time; a concurrent call returns an error instead of
// racing (spec.md §5 leaves concurrent dispatch undefined — this
// module chooses to make it a reported error, per the Design Notes §9
// "recast as an atomic guard" suggestion).
func (q *Queue) Dispatch(ctx context.Context, ms int) error {
	if !q.dispatching.CompareAndSwap(false, true) {
		return errDispatchInProgress
	}
	defer q.dispatching.Store(false)

	if q.opts.pinDispatcher {
		if err := platform.PinDispatcherThread(q.opts.pinCPU); err != nil {
			return err
		}
	}

	bounded := ms >= 0
	deadlineAbs := q.ticker.Tick() + uint32(ms)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := q.ticker.Tick()

		q.queueMu.Lock()
		q.prefetchPendingHead()
		due, deadlineRel := q.dequeueDueLocked(now)
		dueQ := queue.New()
		for idx := due; idx != nilSlot; idx = q.slots[idx].next {
			q.slots[idx].id = -q.slots[idx].id
			q.inFlight.Add(1)
			dueQ.Add(idx)
		}
		q.queueMu.Unlock()

		for dueQ.Length() > 0 {
			idx := dueQ.Remove().(int32)
			s := &q.slots[idx]

			// cb is read under queuelock since a concurrent Cancel on
			// this same in-flight handle writes it under the same lock
			// (spec.md §4.4/§5's cancel-vs-dispatch ordering).
			q.queueMu.Lock()
			cb := s.cb
			q.queueMu.Unlock()

			if cb != nil {
				cb(q.payloadOf(idx))
			}

			q.queueMu.Lock()
			period := s.period
			if period >= 0 {
				s.id = -s.id
				q.enqueueLocked(idx, q.ticker.Tick(), period)
				q.queueMu.Unlock()
				q.inFlight.Add(-1)
				q.sema.Signal()
			} else {
				s.id = q.incid(-s.id)
				q.queueMu.Unlock()
				q.inFlight.Add(-1)
				q.deallocSlot(idx)
			}
		}
		q.Metrics.Add("equeue.dispatch_cycles", 1)

		now = q.ticker.Tick()
		if bounded && !tickBefore(now, deadlineAbs) {
			return nil
		}

		wait := deadlineRel
		if bounded {
			rem := int32(deadlineAbs - now)
			if wait < 0 || rem < wait {
				wait = rem
			}
		}
		q.sema.Wait(int(wait))

		q.queueMu.Lock()
		brk := q.breaks > 0
		if brk {
			q.breaks--
		}
		q.queueMu.Unlock()
		if brk {
			return nil
		}
	}
}
