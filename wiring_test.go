// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package equeue

import (
	"context"
	"sync"
	"testing"

	"github.com/skyformat99/equeue-1/control"
)

func TestZeroByteAllocationsGetDistinctSlots(t *testing.T) {
	q, err := Create(256)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	a := q.Alloc(0)
	b := q.Alloc(0)
	if a == nil || b == nil {
		t.Fatal("Alloc(0) failed")
	}

	q.EventDelay(a, 100)
	q.EventDelay(b, 5)

	idxA := q.slotForPayload(a)
	idxB := q.slotForPayload(b)
	if idxA == nilSlot || idxB == nilSlot {
		t.Fatal("slotForPayload could not resolve a zero-byte allocation")
	}
	if idxA == idxB {
		t.Fatal("two concurrently-outstanding zero-byte allocations resolved to the same slot")
	}
	if q.slots[idxA].delayMs != 100 {
		t.Fatalf("slot for a has delayMs = %d, want 100 (cross-talk from b's EventDelay)", q.slots[idxA].delayMs)
	}
	if q.slots[idxB].delayMs != 5 {
		t.Fatalf("slot for b has delayMs = %d, want 5 (cross-talk from a's EventDelay)", q.slots[idxB].delayMs)
	}
}

func TestConcurrentAllocAndConfigureDoNotRace(t *testing.T) {
	q, err := Create(4096)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const n = 200
	payloads := make([]chan []byte, n)
	for i := range payloads {
		payloads[i] = make(chan []byte, 1)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			payloads[i] <- q.Alloc(8)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			p := <-payloads[i]
			if p == nil {
				continue
			}
			q.EventDelay(p, int32(i))
			q.EventDtor(p, func([]byte) {})
			q.Dealloc(p)
		}
	}()
	wg.Wait()
}

func TestInFlightProbeDuringCallback(t *testing.T) {
	q, vt := newVirtualQueue(t, 512, 0)

	release := make(chan struct{})
	entered := make(chan struct{})
	postClosure(t, q, 10, func() {
		close(entered)
		<-release
	})

	vt.Advance(10)
	done := make(chan error, 1)
	go func() { done <- q.Dispatch(context.Background(), 0) }()

	<-entered
	if got := q.Debug.DumpState()["equeue.inflight"]; got != 1 {
		t.Fatalf("equeue.inflight during callback = %v, want 1", got)
	}
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got := q.Debug.DumpState()["equeue.inflight"]; got != 0 {
		t.Fatalf("equeue.inflight after dispatch completed = %v, want 0", got)
	}
}

func TestBreakCounterProbe(t *testing.T) {
	q, _ := newVirtualQueue(t, 256, 0)

	q.Break()
	q.Break()
	if got := q.Debug.DumpState()["equeue.breaks"]; got != 2 {
		t.Fatalf("equeue.breaks after two Break calls = %v, want 2", got)
	}

	if err := q.Dispatch(context.Background(), -1); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got := q.Debug.DumpState()["equeue.breaks"]; got != 1 {
		t.Fatalf("equeue.breaks after one Dispatch consumed one break = %v, want 1", got)
	}
}

func TestDispatchDefaultReadsConfigTunable(t *testing.T) {
	q, err := Create(64)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	q.Config.SetConfig(map[string]any{"equeue.dispatch_budget_ms": int32(0)})
	if err := q.DispatchDefault(context.Background()); err != nil {
		t.Fatalf("DispatchDefault: %v", err)
	}
}

func TestHotReloadClampsInvalidDispatchBudget(t *testing.T) {
	q, err := Create(64)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	q.Config.SetConfig(map[string]any{"equeue.dispatch_budget_ms": int32(-5)})
	control.TriggerHotReloadSync()

	got := q.Config.GetSnapshot()["equeue.dispatch_budget_ms"]
	if got != int32(-1) {
		t.Fatalf("dispatch budget after hot reload = %v, want -1 (clamped)", got)
	}
}

func TestPlatformProbeRegistered(t *testing.T) {
	q, err := Create(64)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	state := q.Debug.DumpState()
	if _, ok := state["platform.cpus"]; !ok {
		t.Fatal("platform.cpus probe not registered")
	}
}
