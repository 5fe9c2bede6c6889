// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// convenience.go implements Call/CallIn/CallEvery (spec.md §4.6). The
// C source packs a {cb,data} record into an allocated chunk and posts
// a trampoline that unpacks it; a Go closure already captures its
// callback and arguments natively, so this module allocates a
// zero-byte chunk purely to obtain a live handle/slot — no separate
// closure table (see SPEC_FULL.md §5.6).

package equeue

func (q *Queue) call(delayMs, periodMs int32, fn func()) Handle {
	payload := q.Alloc(0)
	if payload == nil {
		return 0
	}
	q.EventDelay(payload, delayMs)
	q.EventPeriod(payload, periodMs)
	return q.Post(payload, func([]byte) { fn() })
}

// Call posts fn for immediate dispatch on the next Dispatch call.
func (q *Queue) Call(fn func()) Handle {
	return q.call(0, -1, fn)
}

// CallIn posts fn to run once after ms milliseconds.
func (q *Queue) CallIn(ms int32, fn func()) Handle {
	return q.call(ms, -1, fn)
}

// CallEvery posts fn to run every ms milliseconds, first firing after
// ms milliseconds.
func (q *Queue) CallEvery(ms int32, fn func()) Handle {
	return q.call(ms, ms, fn)
}
