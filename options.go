// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package equeue

import "github.com/skyformat99/equeue-1/platform"

// options configures Create/CreateInPlace beyond spec.md's single SIZE
// parameter, following the functional-options shape the teacher's own
// constructors use throughout control/ and api/.
type options struct {
	ticker        platform.Ticker
	pinDispatcher bool
	pinCPU        int
}

// Option mutates queue construction options.
type Option func(*options)

// WithTicker injects a custom tick source, letting tests drive the
// queue with a platform.VirtualTicker instead of wall-clock time.
func WithTicker(t platform.Ticker) Option {
	return func(o *options) { o.ticker = t }
}

// WithPinDispatcher requests that Dispatch lock its calling goroutine
// to its OS thread and pin that thread to cpuID (SPEC_FULL.md §3,
// §5.5). Neither the thread lock nor the CPU affinity is undone when
// Dispatch returns. Unsupported platforms silently fall back to locking
// the OS thread without pinning it to a specific core.
func WithPinDispatcher(cpuID int) Option {
	return func(o *options) {
		o.pinDispatcher = true
		o.pinCPU = cpuID
	}
}

func defaultOptions() options {
	return options{ticker: platform.NewSystemTicker(), pinCPU: -1}
}
