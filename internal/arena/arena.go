// Package arena implements the bump-pointer half of the equeue backing
// region: a fixed-capacity byte slab that carves off contiguous ranges
// on demand and never grows.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Grounded on the slot-indexed recast suggested by the equeue Design
// Notes for memory-safe languages: offsets stand in for pointers, and
// the region is a plain []byte rather than malloc'd memory. Reuse of
// previously carved ranges (the "free chunk index" half of the C
// source's allocator) is the caller's responsibility — this package
// only ever hands out bytes it has not handed out before.
package arena

import "unsafe"

// Arena is a fixed-capacity byte region with a bump cursor. It never
// reallocates its backing slice.
type Arena struct {
	buf []byte
	off int
}

// New wraps buf as an arena. The arena's capacity is len(buf); no
// further bytes are ever appended to it.
func New(buf []byte) *Arena {
	return &Arena{buf: buf}
}

// NewSize allocates a fresh buf of the given size and wraps it.
func NewSize(size int) *Arena {
	return New(make([]byte, size))
}

// Cap returns the arena's total capacity in bytes.
func (a *Arena) Cap() int {
	return len(a.buf)
}

// Remaining returns the number of never-touched bytes left in the slab.
func (a *Arena) Remaining() int {
	return len(a.buf) - a.off
}

// Bump claims the next n never-touched bytes and returns their offset.
// ok is false if the slab does not have n bytes left.
func (a *Arena) Bump(n int) (off int, ok bool) {
	if n < 0 || a.off+n > len(a.buf) {
		return 0, false
	}
	off = a.off
	a.off += n
	return off, true
}

// Bytes returns the byte range [off, off+n) of the underlying region.
// The caller must only pass ranges it has previously obtained from Bump.
func (a *Arena) Bytes(off, n int) []byte {
	return a.buf[off : off+n]
}

// OffsetOf recovers the offset within the region of a slice previously
// returned by Bytes, standing in for the C source's pointer-to-offset
// arithmetic (p - q->buffer) now that the region is a Go slice rather
// than a malloc'd buffer. Works for zero-length slices too, since a
// zero-size allocation is a valid payload (see the convenience layer).
func (a *Arena) OffsetOf(p []byte) int {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(a.buf)))
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(p)))
	return int(ptr - base)
}
