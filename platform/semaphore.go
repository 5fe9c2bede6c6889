// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package platform

import "time"

// Semaphore is a counting/binary wait-signal primitive used by the
// dispatch loop as a wakeup hint, not an event counter: repeated
// signals before a Wait may coalesce into a single wakeup, and Wait
// may return without a matching Signal (spurious wakeup is allowed by
// the equeue platform contract).
//
// Grounded on the reusable-timer/select pattern in the teacher's
// core/concurrency EventLoop.Run backoff loop.
type Semaphore struct {
	ch chan struct{}
}

// NewSemaphore creates a semaphore with no pending signal.
func NewSemaphore() *Semaphore {
	return &Semaphore{ch: make(chan struct{}, 1)}
}

// Signal wakes one waiter, or leaves a pending wakeup for the next
// Wait call if nobody is currently waiting. Never blocks.
func (s *Semaphore) Signal() {
	select {
	case s.ch <- struct{}{}:
	default:
		// a wakeup is already pending; coalesce.
	}
}

// Wait blocks for at most timeoutMs milliseconds for a signal.
// timeoutMs < 0 waits forever; timeoutMs == 0 polls without blocking.
// Wait returns regardless of whether it woke due to a signal or a
// timeout — callers must not rely on the distinction.
func (s *Semaphore) Wait(timeoutMs int) {
	if timeoutMs < 0 {
		<-s.ch
		return
	}
	if timeoutMs == 0 {
		select {
		case <-s.ch:
		default:
		}
		return
	}

	timer := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-s.ch:
	case <-timer.C:
	}
}
