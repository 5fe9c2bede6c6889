// Package api
// Author: momentics <momentics@gmail.com>
//
// Public contracts implemented by the equeue scheduler: timer/event
// scheduling (Scheduler), cancellation tokens (Cancelable), structured
// errors, and graceful shutdown.
package api
