package pipeline

import "testing"

func TestFramePoolGetReturnsRequestedLength(t *testing.T) {
	fp := newFramePool(64)
	buf := fp.Get(128)
	if len(buf) != 128 {
		t.Fatalf("len(buf) = %d, want 128", len(buf))
	}
}

func TestFramePoolReusesCapacityAfterPut(t *testing.T) {
	fp := newFramePool(64)
	buf := fp.Get(256)
	fp.Put(buf)

	before := fp.allocs.Load()
	buf2 := fp.Get(200)
	after := fp.allocs.Load()

	if len(buf2) != 200 {
		t.Fatalf("len(buf2) = %d, want 200", len(buf2))
	}
	if after != before {
		t.Fatalf("Get(200) after Put of a 256-cap buffer allocated again: allocs %d -> %d", before, after)
	}
}

func TestFramePoolPutNilIsNoop(t *testing.T) {
	fp := newFramePool(64)
	fp.Put(nil)
	if fp.puts.Load() != 0 {
		t.Fatalf("Put(nil) incremented puts counter")
	}
}
