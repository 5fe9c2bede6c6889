// Package platform collects equeue's external collaborator contracts:
// the tick source, the wakeup semaphore, and optional dispatcher thread
// pinning. None of it is part of the scheduler's core algorithms —
// spec.md §6.1 treats these as swappable, minimally-specified
// dependencies, and Queue only ever depends on the interfaces here.
package platform
