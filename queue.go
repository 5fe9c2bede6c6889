// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// queue.go implements Create/CreateInPlace/Destroy (spec.md §3.1, §7.1)
// and the npw2/handle-width bookkeeping that slot.go and handle.go
// build on.

package equeue

import (
	"context"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/skyformat99/equeue-1/control"
	"github.com/skyformat99/equeue-1/internal/arena"
	"github.com/skyformat99/equeue-1/platform"
)

// maxNpw2 caps the slot-index bit width so genBits (32-npw2) never
// drops below 1; a queue sized to need more than 2^31 concurrent slots
// is not a configuration this implementation supports.
const maxNpw2 = 31

// configDispatchBudgetKey is the Config tunable DispatchDefault reads:
// the default ms budget passed to Dispatch, retunable at runtime
// without rebuilding the Queue.
const configDispatchBudgetKey = "equeue.dispatch_budget_ms"

// Queue is a fixed-capacity event queue: a byte-range allocator plus a
// time-ordered pending chain plus a single-dispatcher drain loop,
// sharing one handle format across all three (spec.md §3).
type Queue struct {
	region *arena.Arena

	memMu        sync.Mutex
	slots        []eventSlot // fixed-length from construction; see newQueue
	slotsUsed    int32
	slotByOffset map[int]int32
	freeHead     int32

	queueMu     sync.Mutex
	pendingHead int32
	breaks      int

	npw2     uint
	genBits  uint
	slotMask uint32

	ticker      platform.Ticker
	sema        *platform.Semaphore
	dispatching atomic.Bool
	inFlight    atomic.Int32

	opts options

	Debug   *control.DebugProbes
	Metrics *control.MetricsRegistry
	Config  *control.ConfigStore
}

// Create allocates a fresh size-byte backing region and returns a ready
// Queue (spec.md §7.1's equeue_create).
func Create(size int, opts ...Option) (*Queue, error) {
	return newQueue(arena.NewSize(size), size, opts...)
}

// CreateInPlace wraps a caller-supplied buffer instead of allocating a
// new one (spec.md §7.1's equeue_create_inplace). The caller retains
// ownership of buf's lifetime; Destroy does not free it (Go has no
// free, but this mirrors the C source's "caller-owned buffer" contract
// for parity with Options/behavioral expectations).
func CreateInPlace(buf []byte, opts ...Option) (*Queue, error) {
	return newQueue(arena.New(buf), len(buf), opts...)
}

func newQueue(region *arena.Arena, size int, opts ...Option) (*Queue, error) {
	if size < 0 {
		return nil, newInvalidArgError("size must not be negative")
	}

	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	maxSlots := size / wordSize
	if maxSlots < 1 {
		maxSlots = 1
	}
	npw2 := uint(bits.Len(uint(maxSlots - 1)))
	if npw2 > maxNpw2 {
		npw2 = maxNpw2
	}

	q := &Queue{
		region: region,
		// slots is allocated at its final length up front: allocSlot
		// (memMu) writes into existing elements by index rather than
		// growing the slice, so no goroutine reading q.slots (queueMu,
		// or unlocked across a dispatch callback — see dispatch.go)
		// ever races allocSlot's append mutating the slice header, and
		// no retained *eventSlot pointer is invalidated by a backing
		// array reallocation. maxSlots bounds the count because every
		// allocSlot call reserves at least wordSize region bytes
		// (slot.go), so the region can never fund more than maxSlots
		// of them.
		slots:        make([]eventSlot, maxSlots),
		slotByOffset: make(map[int]int32),
		freeHead:     nilSlot,
		pendingHead:  nilSlot,
		npw2:         npw2,
		genBits:      32 - npw2,
		slotMask:     uint32(1)<<npw2 - 1,
		ticker:       o.ticker,
		sema:         platform.NewSemaphore(),
		opts:         o,
		Debug:        control.NewDebugProbes(),
		Metrics:      control.NewMetricsRegistry(),
		Config:       control.NewConfigStore(),
	}

	q.Debug.RegisterProbe("equeue.pending", func() any { return q.pendingCount() })
	q.Debug.RegisterProbe("equeue.slots", func() any { return q.slotCount() })
	q.Debug.RegisterProbe("equeue.region_remaining", func() any { return q.region.Remaining() })
	q.Debug.RegisterProbe("equeue.inflight", func() any { return int(q.inFlight.Load()) })
	q.Debug.RegisterProbe("equeue.breaks", func() any { return q.breakCount() })
	control.RegisterPlatformProbes(q.Debug)

	q.Config.SetConfig(map[string]any{configDispatchBudgetKey: int32(-1)})
	control.RegisterReloadHook(func() {
		// A process-wide hot-reload signal revalidates this queue's own
		// tunable: an external config source cannot set the dispatch
		// budget below the documented -1 ("block forever") sentinel.
		if v, ok := q.Config.GetSnapshot()[configDispatchBudgetKey]; ok {
			if ms, ok := v.(int32); ok && ms < -1 {
				q.Config.SetConfig(map[string]any{configDispatchBudgetKey: int32(-1)})
			}
		}
	})

	return q, nil
}

// DispatchDefault runs Dispatch using the ms budget currently carried
// in Config under configDispatchBudgetKey, so operators can retune the
// drain loop's default blocking window at runtime via q.Config.SetConfig
// without rebuilding the Queue.
func (q *Queue) DispatchDefault(ctx context.Context) error {
	ms := -1
	if v, ok := q.Config.GetSnapshot()[configDispatchBudgetKey]; ok {
		if n, ok := v.(int32); ok {
			ms = int(n)
		}
	}
	return q.Dispatch(ctx, ms)
}

// Destroy runs the dtor of every still-pending event, empties the
// pending queue and sets the "equeue.destroyed" metric (spec.md §7.1's
// equeue_destroy). It does not block later Post/Dispatch calls on the
// queue. It must not be called concurrently with Dispatch.
func (q *Queue) Destroy() error {
	q.queueMu.Lock()
	defer q.queueMu.Unlock()

	idx := q.pendingHead
	for idx != nilSlot {
		s := &q.slots[idx]
		next := s.next
		q.runDtorChain(idx)
		idx = next
	}
	q.pendingHead = nilSlot
	q.Metrics.Set("equeue.destroyed", true)
	return nil
}

// runDtorChain invokes dtor on a primary pending slot and every one of
// its coincident-target siblings, per spec.md §7.1's destroy walk.
func (q *Queue) runDtorChain(primary int32) {
	s := &q.slots[primary]
	if s.dtor != nil {
		s.dtor(q.payloadOf(primary))
	}
	sib := s.sibling
	for sib != nilSlot {
		ss := &q.slots[sib]
		if ss.dtor != nil {
			ss.dtor(q.payloadOf(sib))
		}
		sib = ss.sibling
	}
}

func (q *Queue) pendingCount() int {
	q.queueMu.Lock()
	defer q.queueMu.Unlock()
	n := 0
	idx := q.pendingHead
	for idx != nilSlot {
		n++
		s := &q.slots[idx]
		sib := s.sibling
		for sib != nilSlot {
			n++
			sib = q.slots[sib].sibling
		}
		idx = s.next
	}
	return n
}

func (q *Queue) slotCount() int {
	q.memMu.Lock()
	defer q.memMu.Unlock()
	return int(q.slotsUsed)
}

func (q *Queue) breakCount() int {
	q.queueMu.Lock()
	defer q.queueMu.Unlock()
	return q.breaks
}
