// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package equeue

import (
	"context"
	"testing"
	"time"

	"github.com/skyformat99/equeue-1/platform"
)

func newVirtualQueue(t *testing.T, size int, start uint32) (*Queue, *platform.VirtualTicker) {
	t.Helper()
	vt := platform.NewVirtualTicker(start)
	q, err := Create(size, WithTicker(vt))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return q, vt
}

// postClosure is a small helper mirroring the convenience layer's
// trampoline, used directly in tests that need to observe call order.
func postClosure(t *testing.T, q *Queue, delayMs int32, fn func()) Handle {
	t.Helper()
	p := q.Alloc(0)
	if p == nil {
		t.Fatal("Alloc(0) failed")
	}
	q.EventDelay(p, delayMs)
	h := q.Post(p, func([]byte) { fn() })
	if h == 0 {
		t.Fatal("Post returned 0")
	}
	return h
}

func TestFIFOForDistinctTargets(t *testing.T) {
	q, vt := newVirtualQueue(t, 512, 0)

	var order []string
	postClosure(t, q, 10, func() { order = append(order, "A") })
	postClosure(t, q, 20, func() { order = append(order, "B") })

	vt.Advance(30)
	if err := q.Dispatch(context.Background(), 0); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	want := []string{"A", "B"}
	if !equalSlices(order, want) {
		t.Fatalf("dispatch order = %v, want %v", order, want)
	}
}

func TestLIFOAmongCoincident(t *testing.T) {
	q, vt := newVirtualQueue(t, 512, 0)

	var order []string
	postClosure(t, q, 10, func() { order = append(order, "A") })
	postClosure(t, q, 10, func() { order = append(order, "B") })
	postClosure(t, q, 10, func() { order = append(order, "C") })

	vt.Advance(15)
	if err := q.Dispatch(context.Background(), 0); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	want := []string{"C", "B", "A"}
	if !equalSlices(order, want) {
		t.Fatalf("dispatch order = %v, want %v", order, want)
	}
}

func TestPeriodDrift(t *testing.T) {
	q, vt := newVirtualQueue(t, 512, 0)

	var fireTimes []uint32
	var h Handle
	p := q.Alloc(0)
	q.EventDelay(p, 10)
	q.EventPeriod(p, 10)
	h = q.Post(p, func([]byte) {
		fireTimes = append(fireTimes, vt.Tick())
		vt.Advance(5) // simulate the callback itself taking 5 ticks
	})
	if h == 0 {
		t.Fatal("Post returned 0")
	}

	// Drive three invocations. Each call advances to just past the next
	// known due time and lets one batch run.
	for _, target := range []uint32{10, 25, 40} {
		vt.Set(target)
		if err := q.Dispatch(context.Background(), 0); err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
	}

	want := []uint32{10, 25, 40}
	if len(fireTimes) != len(want) {
		t.Fatalf("fireTimes = %v, want %v", fireTimes, want)
	}
	for i := range want {
		if fireTimes[i] != want[i] {
			t.Fatalf("fireTimes[%d] = %d, want %d (period is measured from completion, so drift accumulates)", i, fireTimes[i], want[i])
		}
	}
}

func TestCancelPending(t *testing.T) {
	q, vt := newVirtualQueue(t, 512, 0)

	fired := false
	h := postClosure(t, q, 100, func() { fired = true })

	vt.Set(10)
	q.Cancel(h)

	vt.Set(200)
	if err := q.Dispatch(context.Background(), 0); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if fired {
		t.Fatal("cancelled pending event fired")
	}
	if n := q.pendingCount(); n != 0 {
		t.Fatalf("pending count after cancel+dispatch = %d, want 0", n)
	}
}

func TestCancelInFlightPeriodicSuppressesReenqueue(t *testing.T) {
	q, vt := newVirtualQueue(t, 512, 0)

	var invocations int
	var h Handle
	p := q.Alloc(0)
	q.EventDelay(p, 10)
	q.EventPeriod(p, 10)
	h = q.Post(p, func([]byte) {
		invocations++
		q.Cancel(h)
	})
	if h == 0 {
		t.Fatal("Post returned 0")
	}

	vt.Set(10)
	if err := q.Dispatch(context.Background(), 0); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if invocations != 1 {
		t.Fatalf("invocations = %d, want exactly 1", invocations)
	}

	// The event must not have been re-enqueued: advancing well past
	// another period and dispatching again must not invoke it again.
	vt.Advance(50)
	if err := q.Dispatch(context.Background(), 0); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if invocations != 1 {
		t.Fatalf("invocations after a second dispatch = %d, want still 1 (no re-enqueue)", invocations)
	}
}

func TestBreakMidDispatch(t *testing.T) {
	q, _ := newVirtualQueue(t, 512, 0)

	done := make(chan error, 1)
	go func() {
		done <- q.Dispatch(context.Background(), -1)
	}()

	// Give Dispatch a moment to reach its semaphore wait.
	time.Sleep(20 * time.Millisecond)
	q.Break()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Dispatch returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch did not return after Break")
	}
}

func TestBreakQueuedBeforeDispatchFiresOnce(t *testing.T) {
	q, _ := newVirtualQueue(t, 512, 0)

	q.Break() // queue a break before any dispatcher is running

	done := make(chan error, 1)
	go func() {
		done <- q.Dispatch(context.Background(), -1)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Dispatch returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("a pre-queued Break did not cause the next Dispatch to return")
	}

	// The single break must have been consumed, so it cannot also end a
	// later Dispatch.
	if n := q.breakCount(); n != 0 {
		t.Fatalf("pending breaks after the Dispatch returned = %d, want 0", n)
	}
}

func TestTickWrapOrdering(t *testing.T) {
	const wrapStart = ^uint32(0) - 4 // 2^32 - 5

	// "near" targets 2^32-1 (posted second, but only 4 ticks out from
	// wrapStart); "far" targets 5 post-wrap (posted first, 10 ticks out
	// from wrapStart). tickBefore's wrap-safe signed-difference compares
	// targets relative to each other, not to posting order, so "near"
	// must dispatch first despite being posted later.
	q, vt := newVirtualQueue(t, 512, wrapStart)

	var order []string
	postClosure(t, q, 10, func() { order = append(order, "far") }) // target = wrapStart+10 = 5 (wrapped)

	vt.Set(wrapStart + 2)
	postClosure(t, q, 2, func() { order = append(order, "near") }) // target = 2^32-1

	vt.Set(wrapStart)
	vt.Advance(50) // wraps past both targets
	if err := q.Dispatch(context.Background(), 0); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	want := []string{"near", "far"}
	if !equalSlices(order, want) {
		t.Fatalf("dispatch order across a tick wrap = %v, want %v", order, want)
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
