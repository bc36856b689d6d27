package v4l2

/*
#include <linux/videodev2.h>
*/
import "C"

import (
	"unsafe"

	sys "golang.org/x/sys/unix"

	"github.com/coholabs/v4pipe/errs"
)

// BufType is the V4L2 buffer/stream type (v4l2_buf_type) a device was
// opened for — video capture is the only one this package drives today.
type BufType = uint32

const (
	BufTypeVideoCapture       BufType = C.V4L2_BUF_TYPE_VIDEO_CAPTURE
	BufTypeVideoCaptureMPlane BufType = C.V4L2_BUF_TYPE_VIDEO_CAPTURE_MPLANE
)

// MemoryType selects how a buffer's backing storage is obtained: Mmap maps
// kernel-owned pages, UserPointer hands the kernel a pointer into
// process-heap memory allocated by this package.
type MemoryType = uint32

const (
	MemoryMmap       MemoryType = C.V4L2_MEMORY_MMAP
	MemoryUserPointer MemoryType = C.V4L2_MEMORY_USERPTR
)

// BufferSlot is one entry of the capture ring. Index matches the kernel's
// buffer index; Data is either an mmap'd region (MemoryMmap) or a
// heap-allocated byte slice (MemoryUserPointer) sized Length bytes.
type BufferSlot struct {
	Index  uint32
	Data   []byte
	Length uint32
}

// RequestBuffers asks the kernel for count buffers of bufType/memType
// (VIDIOC_REQBUFS), then queries and maps or allocates each one
// (VIDIOC_QUERYBUF). It returns the resulting slots and the largest
// reported buffer length (maxBufferSize in spec terms). If the kernel
// grants fewer than count buffers, it unwinds anything it already mapped
// and fails with errs.Memory.
func RequestBuffers(fd uintptr, bufType BufType, memType MemoryType, count uint32) ([]BufferSlot, uint32, error) {
	var req C.struct_v4l2_requestbuffers
	req.count = C.uint(count)
	req._type = C.uint(bufType)
	req.memory = C.uint(memType)

	if err := send("v4l2.RequestBuffers", fd, C.VIDIOC_REQBUFS, uintptr(unsafe.Pointer(&req))); err != nil {
		return nil, 0, err
	}
	if uint32(req.count) < count {
		// Ask the kernel to release whatever it did allocate before
		// reporting the shortfall.
		releaseKernelQueue(fd, bufType, memType)
		return nil, 0, errs.Newf("v4l2.RequestBuffers", errs.Memory,
			"driver granted %d of %d requested buffers", uint32(req.count), count)
	}

	granted := uint32(req.count)
	slots := make([]BufferSlot, 0, granted)
	var maxLen uint32

	for i := uint32(0); i < granted; i++ {
		var buf C.struct_v4l2_buffer
		buf.index = C.uint(i)
		buf._type = C.uint(bufType)
		buf.memory = C.uint(memType)

		if err := send("v4l2.QueryBuffer", fd, C.VIDIOC_QUERYBUF, uintptr(unsafe.Pointer(&buf))); err != nil {
			unmapSlots(slots, memType)
			return nil, 0, err
		}

		length := uint32(buf.length)
		var data []byte
		switch memType {
		case MemoryMmap:
			offset := *(*uint32)(unsafe.Pointer(&buf.m[0]))
			mapped, err := sys.Mmap(int(fd), int64(offset), int(length),
				sys.PROT_READ|sys.PROT_WRITE, sys.MAP_SHARED)
			if err != nil {
				unmapSlots(slots, memType)
				return nil, 0, errs.New("v4l2.RequestBuffers", errs.Memory, err)
			}
			data = mapped
		case MemoryUserPointer:
			data = make([]byte, length)
		}

		slots = append(slots, BufferSlot{Index: i, Data: data, Length: length})
		if length > maxLen {
			maxLen = length
		}
	}

	return slots, maxLen, nil
}

// ReleaseBuffers unmaps (Mmap) or drops (UserPointer) every slot, then tells
// the kernel to release the queue by requesting zero buffers.
func ReleaseBuffers(fd uintptr, bufType BufType, memType MemoryType, slots []BufferSlot) error {
	unmapSlots(slots, memType)
	return releaseKernelQueue(fd, bufType, memType)
}

func unmapSlots(slots []BufferSlot, memType MemoryType) {
	if memType != MemoryMmap {
		return
	}
	for _, s := range slots {
		if len(s.Data) > 0 {
			sys.Munmap(s.Data)
		}
	}
}

func releaseKernelQueue(fd uintptr, bufType BufType, memType MemoryType) error {
	var req C.struct_v4l2_requestbuffers
	req.count = 0
	req._type = C.uint(bufType)
	req.memory = C.uint(memType)
	return send("v4l2.ReleaseBuffers", fd, C.VIDIOC_REQBUFS, uintptr(unsafe.Pointer(&req)))
}

// QueueBuffer pushes slot back to the kernel (VIDIOC_QBUF). For
// MemoryUserPointer it attaches the slot's pointer and length so the kernel
// writes the next frame directly into process memory.
func QueueBuffer(fd uintptr, bufType BufType, memType MemoryType, slot BufferSlot) error {
	var buf C.struct_v4l2_buffer
	buf.index = C.uint(slot.Index)
	buf._type = C.uint(bufType)
	buf.memory = C.uint(memType)

	if memType == MemoryUserPointer {
		*(*uintptr)(unsafe.Pointer(&buf.m[0])) = uintptr(unsafe.Pointer(&slot.Data[0]))
		buf.length = C.uint(len(slot.Data))
	}

	return send("v4l2.QueueBuffer", fd, C.VIDIOC_QBUF, uintptr(unsafe.Pointer(&buf)))
}

// DequeuedBuffer describes the slot the kernel just handed back along with
// how many bytes of it are actually valid for this frame.
type DequeuedBuffer struct {
	Index     uint32
	BytesUsed uint32
}

// DequeueBuffer pops one completed buffer from the kernel (VIDIOC_DQBUF).
// For MemoryUserPointer, slots is consulted to find which tracked slot the
// kernel's returned pointer belongs to; a pointer that matches none of them
// means the driver handed back a buffer this package never queued, which
// cannot happen without a kernel or driver bug, so DequeueBuffer panics
// rather than returning an error.
func DequeueBuffer(fd uintptr, bufType BufType, memType MemoryType, slots []BufferSlot) (DequeuedBuffer, error) {
	var buf C.struct_v4l2_buffer
	buf._type = C.uint(bufType)
	buf.memory = C.uint(memType)

	if err := send("v4l2.DequeueBuffer", fd, C.VIDIOC_DQBUF, uintptr(unsafe.Pointer(&buf))); err != nil {
		return DequeuedBuffer{}, err
	}

	if memType == MemoryUserPointer {
		ptr := *(*uintptr)(unsafe.Pointer(&buf.m[0]))
		if !matchesTrackedSlot(slots, ptr) {
			panic("v4l2: DQBUF returned a user pointer that matches no tracked buffer slot")
		}
	}

	return DequeuedBuffer{Index: uint32(buf.index), BytesUsed: uint32(buf.bytesused)}, nil
}

func matchesTrackedSlot(slots []BufferSlot, ptr uintptr) bool {
	for _, s := range slots {
		if len(s.Data) == 0 {
			continue
		}
		if uintptr(unsafe.Pointer(&s.Data[0])) == ptr {
			return true
		}
	}
	return false
}

// StartCapture issues VIDIOC_STREAMON for bufType.
func StartCapture(fd uintptr, bufType BufType) error {
	t := C.uint(bufType)
	return send("v4l2.StartCapture", fd, C.VIDIOC_STREAMON, uintptr(unsafe.Pointer(&t)))
}

// StopCapture issues VIDIOC_STREAMOFF for bufType.
func StopCapture(fd uintptr, bufType BufType) error {
	t := C.uint(bufType)
	return send("v4l2.StopCapture", fd, C.VIDIOC_STREAMOFF, uintptr(unsafe.Pointer(&t)))
}
