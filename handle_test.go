// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package equeue

import "testing"

func TestHandleRoundTrip(t *testing.T) {
	q, err := Create(256)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	h := q.encodeHandle(3, 7)
	slot, gen := q.decodeHandle(h)
	if slot != 3 || gen != 7 {
		t.Fatalf("decodeHandle(encodeHandle(3,7)) = (%d,%d), want (3,7)", slot, gen)
	}
}

func TestIncidNeverReturnsZero(t *testing.T) {
	q, err := Create(256)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	id := int32(1)
	for i := 0; i < 1<<20; i++ {
		id = q.incid(id)
		if id == 0 {
			t.Fatalf("incid returned 0 after %d iterations", i)
		}
	}
}

func TestIncidWraps(t *testing.T) {
	q, err := Create(64)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	limit := int32(1) << q.genBits
	id := limit - 2
	id = q.incid(id)
	if id != limit-1 {
		t.Fatalf("incid(limit-2) = %d, want %d", id, limit-1)
	}
	id = q.incid(id)
	if id != 1 {
		t.Fatalf("incid at generation-field boundary should wrap to 1, got %d", id)
	}
}
