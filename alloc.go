// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// alloc.go implements the public allocation surface over slot.go's
// allocator (spec.md §6.2): Alloc/Dealloc and the pre-post header
// configuration calls EventDelay/EventPeriod/EventDtor.

package equeue

// Alloc reserves a payload_size-byte chunk from the backing region and
// returns it uninitialized. Returns nil if the region cannot satisfy
// the request (spec.md §4.1 step 5).
func (q *Queue) Alloc(size int) []byte {
	idx, ok := q.allocSlot(size)
	if !ok {
		q.Metrics.Add("equeue.alloc_failures", 1)
		return nil
	}
	q.Metrics.Add("equeue.allocs", 1)
	return q.payloadOf(idx)
}

// Dealloc invokes the slot's destructor, if any, then returns the
// chunk to the free index (spec.md §6.2).
func (q *Queue) Dealloc(payload []byte) {
	idx := q.slotForPayload(payload)
	if idx == nilSlot {
		return
	}
	q.deallocSlot(idx)
}

// deallocSlot is Dealloc's index-based core, shared with Cancel and
// Post's "do not post" path so they need not re-derive the slot index
// from a payload slice they already resolved.
func (q *Queue) deallocSlot(idx int32) {
	s := &q.slots[idx]
	if s.dtor != nil {
		s.dtor(q.payloadOf(idx))
	}
	q.freeSlot(idx)
}

// EventDelay sets the relative delay, in milliseconds, an
// allocated-but-not-yet-posted event will be enqueued at. Negative
// values mark the event as "do not post" (spec.md §4.4's Post step).
func (q *Queue) EventDelay(payload []byte, ms int32) {
	idx := q.slotForPayload(payload)
	if idx != nilSlot {
		q.slots[idx].delayMs = ms
	}
}

// EventPeriod sets the event's re-enqueue period in milliseconds.
// Negative means one-shot.
func (q *Queue) EventPeriod(payload []byte, ms int32) {
	idx := q.slotForPayload(payload)
	if idx != nilSlot {
		q.slots[idx].period = ms
	}
}

// EventDtor sets the destructor invoked by Dealloc and by Destroy for
// still-pending events.
func (q *Queue) EventDtor(payload []byte, fn func([]byte)) {
	idx := q.slotForPayload(payload)
	if idx != nilSlot {
		q.slots[idx].dtor = fn
	}
}
