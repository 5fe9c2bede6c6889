// Package equeue implements a flexible event queue: a scheduler that
// accepts user-supplied callbacks with optional delay and periodicity,
// stores them in a fixed-capacity backing region, dispatches them at
// their scheduled times from a single dispatch goroutine, and supports
// safe cancellation by opaque handle from arbitrary goroutines.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The core is four tightly coupled pieces sharing one handle format:
// a bounded slab-with-free-lists allocator (internal/arena plus the
// size-sorted free index in slot.go), a time-ordered pending queue
// with coincident-time sibling chaining (pending.go), the
// cancellation-safety protocol reconciling Cancel against Dispatch via
// generation counters (handle.go, cancel.go), and the dispatch loop
// itself (dispatch.go).
package equeue
