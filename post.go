// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package equeue

// Post enqueues payload for dispatch, returning a nonzero handle usable
// with Cancel (spec.md §4.4). If EventDelay set a negative delay, the
// event is deallocated immediately and the handle returned still
// identifies the now-freed slot — cancelling it is a documented no-op,
// since the generation is bumped before the slot is freed, so Cancel's
// generation check will never see a matching positive id again.
func (q *Queue) Post(payload []byte, cb func([]byte)) Handle {
	idx := q.slotForPayload(payload)
	if idx == nilSlot {
		return 0
	}

	q.queueMu.Lock()
	s := &q.slots[idx]
	idOut := q.encodeHandle(idx, s.id)
	delay := s.delayMs

	if delay < 0 {
		s.id = q.incid(s.id)
		q.queueMu.Unlock()
		q.deallocSlot(idx)
		return idOut
	}

	s.cb = cb
	q.enqueueLocked(idx, q.ticker.Tick(), delay)
	q.queueMu.Unlock()

	q.sema.Signal()
	q.Metrics.Add("equeue.posts", 1)
	return idOut
}
