// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// pending.go implements the time-ordered pending queue (spec.md §4.2,
// §4.3): a doubly-linked primary chain ordered by target tick, with
// coincident-target events chained as siblings off their group's
// primary. Slot indices stand in for the C source's `next`/`sibling`
// pointers and `group` stands in for its `ref` back-pointer, per the
// Design Notes §9 recast (see DESIGN.md Open Question 3).
//
// All of it runs under queueMu; callers hold it across a call.

package equeue

// tickBefore reports whether a is strictly before b using the
// wrap-safe signed-difference comparison spec.md §4.2 specifies.
func tickBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// enqueueLocked implements spec.md §4.2's enqueue: e.target is set to
// now+ms (wrapping), then e is linked into the primary chain in target
// order, becoming the new primary of its group if a coincident-target
// group already exists.
func (q *Queue) enqueueLocked(idx int32, now uint32, ms int32) {
	s := &q.slots[idx]
	s.target = now + uint32(ms)
	s.group = nilSlot

	var prev int32 = nilSlot
	cur := q.pendingHead
	for cur != nilSlot && tickBefore(q.slots[cur].target, s.target) {
		prev = cur
		cur = q.slots[cur].next
	}

	if cur != nilSlot && q.slots[cur].target == s.target {
		// e becomes the new primary of the coincident-target group at
		// cur: it adopts cur's successor, and cur becomes e's sibling.
		landing := &q.slots[cur]
		s.next = landing.next
		s.sibling = cur
		landing.next = nilSlot
		landing.group = idx

		if s.next != nilSlot {
			q.slots[s.next].prev = idx
		}
		s.prev = prev
		if prev == nilSlot {
			q.pendingHead = idx
		} else {
			q.slots[prev].next = idx
		}
		return
	}

	s.next = cur
	s.sibling = nilSlot
	s.prev = prev
	if cur != nilSlot {
		q.slots[cur].prev = idx
	}
	if prev == nilSlot {
		q.pendingHead = idx
	} else {
		q.slots[prev].next = idx
	}
}

// unqueueLocked implements spec.md §4.2's unqueue: O(1) removal of a
// pending slot given its own index. A non-primary sibling is unlinked
// via its group field (naming its immediate predecessor in the sibling
// chain) so the sibling chain can be fixed without a chain walk.
func (q *Queue) unqueueLocked(idx int32) {
	s := &q.slots[idx]

	if s.group != nilSlot {
		q.unlinkSibling(idx)
		return
	}

	if s.sibling != nilSlot {
		// Promote the sibling to primary: it inherits next/prev. Every
		// other member's group field already names its true immediate
		// predecessor (set once, at the moment it was first displaced,
		// and never invalidated by later insertions ahead of it), so
		// only the promoted node itself needs its group cleared.
		sib := s.sibling
		q.slots[sib].group = nilSlot
		q.relinkNeighbors(sib, s.prev, s.next)
		return
	}

	q.relinkNeighbors(nilSlot, s.prev, s.next)
}

// unlinkSibling removes a non-primary member idx from its group's
// sibling chain in O(1): s.group already names idx's immediate
// predecessor (the invariant every insertion/removal in this file
// maintains), so no chain walk is needed, mirroring the C source's
// `ref` back-pointer unlink. The member that inherits idx's old
// position has its own group field repointed at idx's predecessor.
func (q *Queue) unlinkSibling(idx int32) {
	predecessor := q.slots[idx].group
	successor := q.slots[idx].sibling
	q.slots[predecessor].sibling = successor
	if successor != nilSlot {
		q.slots[successor].group = predecessor
	}
}

// relinkNeighbors fixes the primary chain's prev/next pointers around
// a removed or promoted node, given its old neighbors.
func (q *Queue) relinkNeighbors(newNode, prev, next int32) {
	if prev == nilSlot {
		q.pendingHead = newNode
	} else {
		q.slots[prev].next = newNode
	}
	if next != nilSlot {
		q.slots[next].prev = prev
	}
	if newNode != nilSlot {
		q.slots[newNode].prev = prev
		q.slots[newNode].next = next
	}
}

// dequeueDueLocked implements spec.md §4.3: detaches every primary
// group whose target is <= now, relinks each group's sibling chain
// newest-first onto next (LIFO among coincident events; see
// reverseGroup), and concatenates the groups into a
// flat dispatch list linked via next. It returns the list head and the
// remaining-queue deadline (signed ms until the new head's target, or
// -1 if the queue is now empty).
func (q *Queue) dequeueDueLocked(now uint32) (due int32, deadline int32) {
	var dueTail int32 = nilSlot
	due = nilSlot

	for q.pendingHead != nilSlot && !tickBefore(now, q.slots[q.pendingHead].target) {
		primary := q.pendingHead
		s := &q.slots[primary]
		q.pendingHead = s.next
		if q.pendingHead != nilSlot {
			q.slots[q.pendingHead].prev = nilSlot
		}

		group := q.reverseGroup(primary)

		if due == nilSlot {
			due = group
		} else {
			q.slots[dueTail].next = group
		}
		dueTail = q.lastOfChain(group)
	}

	if dueTail != nilSlot {
		q.slots[dueTail].next = nilSlot
	}

	if q.pendingHead == nilSlot {
		return due, -1
	}
	return due, int32(q.slots[q.pendingHead].target - now)
}

// reverseGroup relinks a detached group's sibling chain via next so it
// can be concatenated into the flat dispatch list, preserving dispatch
// order. enqueueLocked always makes the most-recently-posted member
// the group's primary and chains the previous primary off it as
// sibling, so walking from primary through sibling already visits
// members newest-first; relinking that same walk order via next (no
// direction flip) is what yields the last-inserted-dispatches-first
// order spec.md §5 and its coincident-target test require. Returns the
// group's head (== primary) in the new next-linked chain.
func (q *Queue) reverseGroup(primary int32) int32 {
	cur := primary
	prev := int32(nilSlot)
	for cur != nilSlot {
		next := q.slots[cur].sibling
		q.slots[cur].sibling = nilSlot
		q.slots[cur].group = nilSlot
		if prev != nilSlot {
			q.slots[prev].next = cur
		}
		prev = cur
		cur = next
	}
	q.slots[prev].next = nilSlot
	return primary
}

// lastOfChain walks a next-linked chain to its tail.
func (q *Queue) lastOfChain(head int32) int32 {
	cur := head
	for q.slots[cur].next != nilSlot {
		cur = q.slots[cur].next
	}
	return cur
}
