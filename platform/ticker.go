// Package platform provides the external collaborators equeue treats
// as out-of-scope contracts: the monotonic millisecond tick source and
// the counting semaphore the dispatch loop blocks on.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package platform

import (
	"sync"
	"time"
)

// Ticker returns an unsigned millisecond counter that may wrap at
// 2^32. Resolution need not be 1ms; it must be monotonic modulo 2^32.
type Ticker interface {
	Tick() uint32
}

// SystemTicker is the default Ticker, backed by the monotonic clock.
type SystemTicker struct {
	start time.Time
}

// NewSystemTicker returns a Ticker anchored to the current instant.
func NewSystemTicker() *SystemTicker {
	return &SystemTicker{start: time.Now()}
}

// Tick returns milliseconds elapsed since the ticker was created,
// truncated to 32 bits so it wraps the same way the C source's
// platform tick does.
func (t *SystemTicker) Tick() uint32 {
	return uint32(time.Since(t.start).Milliseconds())
}

// VirtualTicker is a manually advanced Ticker for deterministic tests
// (equeue spec.md §8.3's "virtual clock T").
type VirtualTicker struct {
	mu  sync.Mutex
	now uint32
}

// NewVirtualTicker creates a VirtualTicker starting at the given tick.
func NewVirtualTicker(start uint32) *VirtualTicker {
	return &VirtualTicker{now: start}
}

// Tick returns the current virtual time.
func (t *VirtualTicker) Tick() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now
}

// Advance moves the virtual clock forward by ms milliseconds, wrapping
// at 2^32 the same way a real tick source would.
func (t *VirtualTicker) Advance(ms uint32) {
	t.mu.Lock()
	t.now += ms
	t.mu.Unlock()
}

// Set pins the virtual clock to an absolute tick value.
func (t *VirtualTicker) Set(tick uint32) {
	t.mu.Lock()
	t.now = tick
	t.mu.Unlock()
}
