// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package equeue

import "github.com/skyformat99/equeue-1/api"

func newInvalidArgError(msg string) error {
	return api.NewError(api.ErrCodeInvalidArgument, msg)
}

func newExhaustedError(msg string) error {
	return api.NewError(api.ErrCodeResourceExhausted, msg)
}

// errDispatchInProgress is returned by Dispatch when called while
// another Dispatch is already running on the same queue (spec.md §5:
// "one dispatcher thread at a time per queue").
var errDispatchInProgress = api.NewError(api.ErrCodeAlreadyExists, "dispatch already in progress on this queue")

// Shutdown implements api.GracefulShutdown in terms of Destroy.
func (q *Queue) Shutdown() error {
	return q.Destroy()
}
