// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package equeue

// Cancel is race-free against Dispatch (spec.md §4.4, §5). Decoding the
// handle's slot index and generation, it distinguishes three cases
// from a single read of the slot's id under queuelock:
//
//   - id == gen (positive match): the event is still pending. Unqueue
//     it, advance its generation, and deallocate.
//   - id == -gen (in-flight): the dispatcher has already taken the
//     event off the pending queue but has not yet invoked or re-queued
//     it. Suppress the callback and any periodic re-enqueue; the
//     dispatcher itself performs the generation bump and deallocation
//     once it finds the period cleared after the callback step.
//   - neither (stale generation): the slot has been reused by a later
//     event or was never posted; Cancel is a no-op.
//
// The in-flight branch intentionally falls through to the generation
// check rather than returning early — see DESIGN.md Open Question 1.
func (q *Queue) Cancel(h Handle) {
	if h == 0 {
		return
	}
	idx, gen := q.decodeHandle(h)
	if idx < 0 || int(idx) >= len(q.slots) {
		return
	}

	q.queueMu.Lock()
	s := &q.slots[idx]

	if s.id == -gen {
		s.cb = nil
		s.period = -1
	}
	if s.id != gen {
		q.queueMu.Unlock()
		return
	}

	q.unqueueLocked(idx)
	s.id = q.incid(s.id)
	q.queueMu.Unlock()

	q.deallocSlot(idx)
	q.Metrics.Add("equeue.cancels", 1)
}
