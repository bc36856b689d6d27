package pipeline

import (
	"github.com/coholabs/v4pipe/task"
	"github.com/coholabs/v4pipe/v4l2"
)

// Params is the Go name for the source's VideoParams: everything a Pipeline
// needs to open, configure, and stream one V4L2 device. It is immutable
// once Start accepts it — mutating a Params after Start has no effect on
// the running pipeline.
type Params struct {
	// Name is the registry key; must be unique among running pipelines.
	Name string
	// DevicePath is the V4L2 node, e.g. "/dev/video0".
	DevicePath string
	// RequestedCaps is checked against the device's reported capability
	// bitmask at Open; a mismatch fails with errs.BadCaps.
	RequestedCaps uint32

	BufferType  v4l2.BufType
	PixelFormat v4l2.FourCCType
	Colorspace  v4l2.ColorspaceType

	// Priority selects the OS scheduling priority of both worker threads.
	Priority task.Priority
	// DesiredFps is best-effort; a driver that rejects it is not an error.
	DesiredFps uint32

	// CaptureArea is the width/height requested from Configure before
	// selection negotiation runs.
	CaptureArea v4l2.Area
	// CroppingArea and ComposingArea feed SetCroppingArea/SetComposingArea;
	// both are clamped against the device's own default rectangles.
	CroppingArea  v4l2.Rect
	ComposingArea v4l2.Rect

	// BufferCount is the number of ring buffers requested; the driver may
	// grant fewer, which fails Start with errs.Memory.
	BufferCount uint32
	// MemoryStrategy selects Mmap or UserPointer buffer backing.
	MemoryStrategy v4l2.MemoryType
	// AwaitMode selects how the frames-handler waits for readiness.
	AwaitMode v4l2.AwaitMode
}
