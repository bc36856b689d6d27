package v4l2

import (
	"github.com/coholabs/v4pipe/errs"
)

// AwaitMode selects how AwaitData behaves when the device has no frame
// ready. Blocking waits forever (or until stopAwaitingData is called);
// NonBlockingWithTimeout returns errs.Timeout once timeoutMs elapses,
// letting a caller poll for other work between attempts.
type AwaitMode int

const (
	Blocking AwaitMode = iota
	NonBlockingWithTimeout
)

// Device is a single opened V4L2 node plus the buffer ring and self-pipe
// wired up for it. All operations map one-to-one onto the v4l2 ioctl
// surface; none of them retain frame data themselves — callers own the
// bytes returned from a slot after DequeueBuffer.
type Device struct {
	path    string
	fd      uintptr
	bufType BufType
	memType MemoryType

	cap    Capability
	format PixFormat

	slots         []BufferSlot
	maxBufferSize uint32

	waiter *waiter

	streaming bool
}

// Open opens path read-write, queries its capabilities, and rejects the
// device unless (deviceCaps & requestedCaps) == requestedCaps. bufType fixes
// which V4L2 buffer/stream type subsequent calls operate on.
func Open(path string, bufType BufType, requestedCaps uint32) (*Device, error) {
	fd, err := openDevice(path)
	if err != nil {
		return nil, err
	}

	cap, err := GetCapability(fd)
	if err != nil {
		closeDevice(fd)
		return nil, err
	}
	if !cap.Has(requestedCaps) {
		closeDevice(fd)
		return nil, errs.Newf("v4l2.Open", errs.BadCaps,
			"device %q capabilities %#x do not satisfy requested %#x", path, cap.GetCapabilities(), requestedCaps)
	}

	w, err := newWaiter(fd)
	if err != nil {
		closeDevice(fd)
		return nil, err
	}

	return &Device{
		path:    path,
		fd:      fd,
		bufType: bufType,
		cap:     cap,
		waiter:  w,
	}, nil
}

// Close tears down both the device descriptor and the self-pipe. Safe to
// call once; calling it on an already-streaming device stops capture first.
func (d *Device) Close() error {
	if d.streaming {
		d.StopCapture()
	}
	d.waiter.close()
	return closeDevice(d.fd)
}

// Capability returns the capabilities recorded at Open.
func (d *Device) Capability() Capability { return d.cap }

// Fd exposes the raw descriptor for callers that need it for logging or
// diagnostics only; all protocol operations go through this type's methods.
func (d *Device) Fd() uintptr { return d.fd }

// Configure reads the current pixel format, overwrites pixelFormat,
// colorspace, width and height, writes it back, then reads it again so the
// caller observes the kernel's adjusted values. If the device reports
// support for timeperframe, it also negotiates desiredFps via
// SetStreamCaptureParam; a driver that cannot honor the requested rate is
// not treated as an error. The negotiated rate is not returned; it can be
// read back with GetStreamCaptureParam if the exact rate matters.
func (d *Device) Configure(pixelFormat FourCCType, colorspace ColorspaceType, width, height, desiredFps uint32) (PixFormat, error) {
	current, err := GetPixFormat(d.fd)
	if err != nil {
		return PixFormat{}, err
	}

	current.PixelFormat = pixelFormat
	current.Colorspace = colorspace
	current.Width = width
	current.Height = height

	if err := SetPixFormat(d.fd, current); err != nil {
		return PixFormat{}, err
	}

	applied, err := GetPixFormat(d.fd)
	if err != nil {
		return PixFormat{}, err
	}
	d.format = applied

	if desiredFps > 0 {
		d.negotiateFrameRate(desiredFps)
	}

	return applied, nil
}

func (d *Device) negotiateFrameRate(desiredFps uint32) {
	param, err := GetStreamCaptureParam(d.fd)
	if err != nil {
		return
	}
	if param.Capability&StreamParamTimePerFrame == 0 {
		return
	}
	param.TimePerFrame = Fract{Numerator: 1, Denominator: desiredFps}
	// A driver that rejects or rounds this is not fatal; the negotiated
	// value (if any) is discoverable via GetStreamCaptureParam afterward.
	SetStreamCaptureParam(d.fd, param)
}

// Format returns the pixel format last applied by Configure.
func (d *Device) Format() PixFormat { return d.format }

// SetCroppingArea clamps rect into the device's default crop rectangle and
// applies it, returning whatever the driver finally accepted.
func (d *Device) SetCroppingArea(rect Rect) (Rect, error) {
	return SetCroppingArea(d.fd, d.bufType, rect)
}

// SetComposingArea clamps rect into the device's default composing
// rectangle and applies it with the "less-or-equal" flag.
func (d *Device) SetComposingArea(rect Rect) (Rect, error) {
	return SetComposingArea(d.fd, d.bufType, rect)
}

// RequestBuffers allocates count buffers using memType and tracks the
// resulting slots and maxBufferSize on the device.
func (d *Device) RequestBuffers(count uint32, memType MemoryType) error {
	slots, maxLen, err := RequestBuffers(d.fd, d.bufType, memType, count)
	if err != nil {
		return err
	}
	d.memType = memType
	d.slots = slots
	d.maxBufferSize = maxLen
	return nil
}

// ReleaseBuffers unmaps or frees every tracked slot and releases the
// kernel's queue.
func (d *Device) ReleaseBuffers() error {
	if d.slots == nil {
		return nil
	}
	err := ReleaseBuffers(d.fd, d.bufType, d.memType, d.slots)
	d.slots = nil
	d.maxBufferSize = 0
	return err
}

// MaxBufferSize returns the largest buffer length RequestBuffers reported.
func (d *Device) MaxBufferSize() uint32 { return d.maxBufferSize }

// Slots returns the buffer ring allocated by RequestBuffers, indexed by
// kernel buffer index.
func (d *Device) Slots() []BufferSlot { return d.slots }

// StartCapture issues VIDIOC_STREAMON.
func (d *Device) StartCapture() error {
	if err := StartCapture(d.fd, d.bufType); err != nil {
		return err
	}
	d.streaming = true
	return nil
}

// StopCapture issues VIDIOC_STREAMOFF.
func (d *Device) StopCapture() error {
	d.streaming = false
	return StopCapture(d.fd, d.bufType)
}

// QueueBuffer pushes slot index idx back to the kernel.
func (d *Device) QueueBuffer(idx uint32) error {
	return QueueBuffer(d.fd, d.bufType, d.memType, d.slots[idx])
}

// DequeueBuffer pops one completed buffer from the kernel. For
// MemoryUserPointer a mismatch against every tracked slot panics — the
// kernel handing back a pointer this process never queued cannot happen
// without a driver bug.
func (d *Device) DequeueBuffer() (DequeuedBuffer, error) {
	return DequeueBuffer(d.fd, d.bufType, d.memType, d.slots)
}

// AwaitData blocks (or times out, in NonBlockingWithTimeout mode) until the
// device is readable or StopAwaitingData is called from another goroutine.
// A wakeup from StopAwaitingData is reported as (false, nil); the caller is
// expected to check its own shutdown flag in that case.
func (d *Device) AwaitData(mode AwaitMode, timeoutMs int) (ready bool, err error) {
	if mode == Blocking {
		timeoutMs = 0
	} else if timeoutMs <= 0 {
		timeoutMs = 1
	}

	result, err := d.waiter.await(timeoutMs)
	if err != nil {
		return false, err
	}
	switch result {
	case awaitReady:
		return true, nil
	case awaitTimeout:
		return false, errs.New("v4l2.AwaitData", errs.Timeout, nil)
	default: // awaitCancelled
		return false, nil
	}
}

// StopAwaitingData wakes any goroutine blocked in AwaitData. Idempotent and
// safe to call from any goroutine.
func (d *Device) StopAwaitingData() {
	d.waiter.stop()
}
