//go:build !linux
// +build !linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package platform

import "runtime"

func pinDispatcherThread(cpuID int) error {
	runtime.LockOSThread()
	return nil
}
