// Package v4l2 wraps the Linux Video4Linux2 ioctl surface used to drive a
// single capture device: VIDIOC_QUERYCAP, G_FMT/S_FMT, G_PARM/S_PARM,
// G_SELECTION/S_SELECTION, REQBUFS/QUERYBUF, QBUF/DQBUF and
// STREAMON/STREAMOFF.
//
// Device ties these calls together into the operations v4pipe's capture
// pipeline needs: Open validates a device's capabilities against what the
// caller requires, Configure negotiates pixel format and frame rate,
// SetCroppingArea/SetComposingArea negotiate the capture rectangle,
// RequestBuffers allocates the buffer ring (mmap or user-pointer), and
// AwaitData/QueueBuffer/DequeueBuffer drive the per-frame capture loop.
//
// # Buffer strategies
//
//   - MemoryMmap: the kernel owns the pages; Device keeps the mapping for
//     each slot's lifetime and unmaps it on ReleaseBuffers.
//   - MemoryUserPointer: Device heap-allocates each slot and hands the
//     kernel a pointer to it at QueueBuffer time.
//
// # Cancellation
//
// AwaitData multiplexes the device descriptor with a self-pipe so
// StopAwaitingData can interrupt a blocked capture loop from another
// goroutine — the same portable mechanism used by the underlying C
// implementation this package's capture model is derived from, since V4L2
// itself offers no cancelable wait primitive.
//
// # CGO
//
// This package uses cgo to interop with <linux/videodev2.h> struct layouts
// directly rather than hand-encoding ioctl request numbers; building it
// requires a C toolchain and Linux kernel headers.
package v4l2
