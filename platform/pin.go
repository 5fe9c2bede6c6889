// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-generic symbol for pinning the dispatching goroutine to an
// OS thread. Always overridden by a matching platform file via build
// tag, mirroring the teacher's internal/concurrency pin.go/pin_linux.go
// split.

package platform

// PinDispatcherThread locks the calling goroutine to its current OS
// thread and, where supported, pins that thread to cpuID. It backs the
// optional single-dispatcher enforcement described in equeue's Design
// Notes (§9): a queue created with the WithPinDispatcher option calls this
// once at the top of Dispatch. On unsupported platforms it only locks
// the OS thread and is otherwise a no-op.
func PinDispatcherThread(cpuID int) error {
	return pinDispatcherThread(cpuID)
}
