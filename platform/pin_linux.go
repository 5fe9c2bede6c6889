//go:build linux
// +build linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux implementation of dispatcher thread pinning via sched_setaffinity,
// adapted from the teacher's reactor_linux.go/affinity_linux.go style of
// reaching for golang.org/x/sys/unix directly rather than cgo.

package platform

import (
	"runtime"

	"golang.org/x/sys/unix"
)

func pinDispatcherThread(cpuID int) error {
	runtime.LockOSThread()
	if cpuID < 0 {
		return nil
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	return unix.SchedSetaffinity(0, &set)
}
