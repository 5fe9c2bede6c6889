// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// slot.go implements the event header and the bounded slab-with-free-lists
// allocator (spec.md §3.1, §4.1), recast per the equeue Design Notes as a
// slot-indexed arena rather than raw pointer arithmetic: every event lives
// at a stable index into q.slots for its whole life, and next/sibling/group
// fields hold slot indices instead of pointers.
//
// A slot is, at any instant, in exactly one of three states (spec.md §3.1):
// free-list resident, pending, or in-flight. next/sibling are reused across
// the free-index and pending-queue roles since a slot is never in both at
// once; prev and group are meaningful only in the pending role.

package equeue

// eventSlot is the fixed-size header for one event. The user payload is
// a slice into q.region backed by [payloadOff, payloadOff+size).
type eventSlot struct {
	size    int32 // payload byte capacity; free-index sort key while free
	id      int32 // generation: > 0 idle/pending, < 0 magnitude-equal in-flight
	delayMs int32 // EventDelay value, valid only pre-Post; < 0 means "do not post"
	target  uint32
	period  int32 // -1 one-shot, >= 0 repeat period in ms

	cb   func([]byte)
	dtor func([]byte)

	payloadOff int32

	next    int32 // free-index size-chain, or pending primary doubly-linked "next"
	prev    int32 // pending primary doubly-linked "prev"; unused while free/in-flight
	sibling int32 // free-index same-size sibling, or pending coincident-target sibling
	group   int32 // pending sibling member only: slot index of its immediate predecessor in the sibling chain
}

// payloadOf returns the byte slice backing this slot's allocation.
func (q *Queue) payloadOf(idx int32) []byte {
	s := &q.slots[idx]
	return q.region.Bytes(int(s.payloadOff), int(s.size))
}

// slotForPayload recovers the owning slot index from a payload slice
// previously returned by Alloc. Payload slices are always taken directly
// from the backing region with matching offset/length, so a linear probe
// over the handful of in-flight/pending-free candidates is unnecessary:
// the slice's own data pointer offset against the region's base is the
// lookup the original C pointer arithmetic (p-1) performed.
//
// slotByOffset is also written by allocSlot under memMu (spec.md §5
// permits Alloc from one producer goroutine concurrently with
// Post/Dealloc/EventDelay/EventPeriod/EventDtor from another), so reads
// here take the same lock.
func (q *Queue) slotForPayload(p []byte) int32 {
	off := q.region.OffsetOf(p)
	q.memMu.Lock()
	idx, ok := q.slotByOffset[off]
	q.memMu.Unlock()
	if !ok {
		return nilSlot
	}
	return idx
}

// allocSlot implements spec.md §4.1's mem_alloc under memlock: first-fit
// over the size-sorted free index (equivalent to best-fit since each
// distinct size is a single primary node), falling back to the slab.
func (q *Queue) allocSlot(size int) (int32, bool) {
	want := int32(roundUpWord(size))

	q.memMu.Lock()
	defer q.memMu.Unlock()

	var pIdx int32 = nilSlot
	cur := q.freeHead
	for cur != nilSlot {
		s := &q.slots[cur]
		if s.size >= want {
			q.popFree(pIdx, cur)
			s.delayMs = 0
			s.period = -1
			s.dtor = nil
			s.cb = nil
			return cur, true
		}
		pIdx = cur
		cur = s.next
	}

	// Every slot reserves at least one word of the region, even a
	// zero-byte one: Bump(0) would hand back the current cursor without
	// advancing it, so two concurrently-outstanding zero-payload events
	// (e.g. two Call calls) would collide on the same slotByOffset key
	// and resolve to each other's slot.
	reserve := int(want)
	if reserve == 0 {
		reserve = wordSize
	}
	off, ok := q.region.Bump(reserve)
	if !ok {
		return nilSlot, false
	}

	// q.slots is a fixed-length array allocated once in newQueue; a new
	// slot activates by writing into its next unused element rather
	// than appending, so the slice header q.slots is never mutated
	// again after construction and idx's address is stable for the
	// life of the Queue (dispatch.go holds a *eventSlot across an
	// unlocked callback).
	idx := q.slotsUsed
	if int(idx) >= len(q.slots) {
		return nilSlot, false
	}
	q.slotsUsed++

	q.slots[idx] = eventSlot{
		size:       want,
		id:         1,
		period:     -1,
		payloadOff: int32(off),
		next:       nilSlot,
		prev:       nilSlot,
		sibling:    nilSlot,
		group:      nilSlot,
	}
	q.slotByOffset[off] = idx
	return idx, true
}

// popFree removes the free-index entry at cur (whose predecessor in the
// size-sorted primary chain is prevIdx, or nilSlot if cur is the head),
// promoting a sibling in its place if one exists.
func (q *Queue) popFree(prevIdx, cur int32) {
	s := &q.slots[cur]
	var newHead int32
	if s.sibling != nilSlot {
		newHead = s.sibling
		q.slots[newHead].next = s.next
	} else {
		newHead = s.next
	}

	if prevIdx == nilSlot {
		q.freeHead = newHead
	} else {
		q.slots[prevIdx].next = newHead
	}
	s.sibling = nilSlot
}

// freeSlot implements spec.md §4.1's mem_dealloc under memlock: inserts
// the slot into the size-sorted free index, chaining it as a sibling of
// an existing same-size primary or as a new primary otherwise.
func (q *Queue) freeSlot(idx int32) {
	q.memMu.Lock()
	defer q.memMu.Unlock()

	s := &q.slots[idx]
	s.cb = nil
	s.dtor = nil

	var pIdx int32 = nilSlot
	cur := q.freeHead
	for cur != nilSlot && q.slots[cur].size < s.size {
		pIdx = cur
		cur = q.slots[cur].next
	}

	if cur != nilSlot && q.slots[cur].size == s.size {
		s.sibling = cur
		s.next = q.slots[cur].next
	} else {
		s.sibling = nilSlot
		s.next = cur
	}

	if pIdx == nilSlot {
		q.freeHead = idx
	} else {
		q.slots[pIdx].next = idx
	}
}
