package v4l2

// #include <linux/videodev2.h>
import "C"

import (
	"fmt"
	"unsafe"
)

// Capability constants define the device/driver features Open's capability
// gate and RequestedCaps masks are built from. Only the capture-side flags
// this pipeline can exercise are named here.
//
// Reference: https://elixir.bootlin.com/linux/latest/source/include/uapi/linux/videodev2.h#L451
const (
	// CapVideoCapture indicates the device supports video capture via the
	// single-planar API. This is the capability list.go's probe and every
	// capture pipeline's RequestedCaps mask require.
	CapVideoCapture uint32 = C.V4L2_CAP_VIDEO_CAPTURE

	// CapVideoCaptureMPlane indicates video capture support via the
	// multi-planar API, used by sensors that split planes across separate
	// buffers.
	CapVideoCaptureMPlane uint32 = C.V4L2_CAP_VIDEO_CAPTURE_MPLANE

	// CapReadWrite indicates support for the read()/write() I/O methods.
	CapReadWrite uint32 = C.V4L2_CAP_READWRITE

	// CapStreaming indicates support for streaming I/O via memory-mapped or
	// user-pointer buffers, the I/O method buffers.go drives.
	CapStreaming uint32 = C.V4L2_CAP_STREAMING

	// CapDeviceCapabilities indicates the driver fills in DeviceCapabilities
	// with the opened node's own capabilities, distinct from Capabilities'
	// whole-device set. GetCapabilities prefers it when set.
	CapDeviceCapabilities uint32 = C.V4L2_CAP_DEVICE_CAPS
)

// Capability reports a V4L2 device's identification and its supported
// capture capabilities, as returned by VIDIOC_QUERYCAP.
//
// Reference: https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/vidioc-querycap.html
type Capability struct {
	// Driver is the name of the driver module (e.g., "uvcvideo").
	Driver string

	// Card is a human-readable name of the device (e.g., "HD Webcam C920").
	Card string

	// BusInfo describes the device's physical connection (e.g.,
	// "usb-0000:00:14.0-1").
	BusInfo string

	// Capabilities is the bitmask of capabilities supported by the physical
	// device, which may span more than the opened node.
	Capabilities uint32

	// DeviceCapabilities is the bitmask of capabilities for this specific
	// opened device node. Only valid when CapDeviceCapabilities is set in
	// Capabilities.
	DeviceCapabilities uint32
}

// GetCapability issues VIDIOC_QUERYCAP and returns the device's
// identification and capability bitmasks.
func GetCapability(fd uintptr) (Capability, error) {
	var v4l2Cap C.struct_v4l2_capability
	if err := send("v4l2.GetCapability", fd, C.VIDIOC_QUERYCAP, uintptr(unsafe.Pointer(&v4l2Cap))); err != nil {
		return Capability{}, err
	}
	return Capability{
		Driver:             C.GoString((*C.char)(unsafe.Pointer(&v4l2Cap.driver[0]))),
		Card:               C.GoString((*C.char)(unsafe.Pointer(&v4l2Cap.card[0]))),
		BusInfo:            C.GoString((*C.char)(unsafe.Pointer(&v4l2Cap.bus_info[0]))),
		Capabilities:       uint32(v4l2Cap.capabilities),
		DeviceCapabilities: uint32(v4l2Cap.device_caps),
	}, nil
}

// GetCapabilities returns DeviceCapabilities when the driver provides it,
// falling back to the physical device's Capabilities otherwise.
func (c Capability) GetCapabilities() uint32 {
	if c.Capabilities&CapDeviceCapabilities != 0 {
		return c.DeviceCapabilities
	}
	return c.Capabilities
}

// Has reports whether every bit set in mask is present in the device's
// effective capability set. This is the gate Open uses to reject a device
// that can't satisfy RequestedCaps, and the probe list.go uses to filter
// capture-capable nodes.
func (c Capability) Has(mask uint32) bool {
	return c.GetCapabilities()&mask == mask
}

// String returns a human-readable summary of the device's identification.
func (c Capability) String() string {
	return fmt.Sprintf("driver: %s; card: %s; bus info: %s", c.Driver, c.Card, c.BusInfo)
}
