package pipeline

import (
	"sync"
	"sync/atomic"
)

// Frame is the single per-pipeline frame slot handed to listeners. Data is
// borrowed: it is only valid for the duration of an onFrame callback, since
// the next producer copy overwrites it as soon as the notifier releases
// bufferLock.
type Frame struct {
	Index  uint32
	Offset uint32
	Length uint32
	Data   []byte
}

// framePool hands out byte slices sized to a pipeline's maxBufferSize and
// takes them back when a pipeline tears down, so repeated Start/Stop
// cycles reuse a buffer instead of allocating and immediately
// garbage-collecting one every time. Adapted from the teacher's
// device.FramePool, scaled down to the single Get-then-Put-at-teardown
// lifecycle a pipeline's one Frame slot actually has (a pipeline never
// calls Get more than once between a Start and the matching Stop).
type framePool struct {
	pool       sync.Pool
	defaultCap int

	gets   atomic.Int64
	puts   atomic.Int64
	allocs atomic.Int64
}

func newFramePool(defaultCapacity int) *framePool {
	fp := &framePool{defaultCap: defaultCapacity}
	fp.pool.New = func() any {
		buf := make([]byte, 0, fp.defaultCap)
		fp.allocs.Add(1)
		return &buf
	}
	return fp
}

// Get returns a buffer with length size and capacity >= size.
func (fp *framePool) Get(size uint32) []byte {
	fp.gets.Add(1)
	bufPtr := fp.pool.Get().(*[]byte)
	if cap(*bufPtr) < int(size) {
		*bufPtr = make([]byte, size)
		fp.allocs.Add(1)
	} else {
		*bufPtr = (*bufPtr)[:size]
	}
	return *bufPtr
}

// Put returns buf to the pool, resetting its length but keeping capacity.
func (fp *framePool) Put(buf []byte) {
	if buf == nil {
		return
	}
	fp.puts.Add(1)
	buf = buf[:0]
	fp.pool.Put(&buf)
}

// sharedFramePool is reused across every pipeline in the process, the same
// way the teacher shares one DefaultFramePool() across every Device.
var sharedFramePool = newFramePool(1 << 20)
