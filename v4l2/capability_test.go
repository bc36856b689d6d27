package v4l2

import "testing"

func TestCapabilityHasRequiresEveryBitInMask(t *testing.T) {
	cap := Capability{Capabilities: CapVideoCapture | CapStreaming}

	if !cap.Has(CapVideoCapture) {
		t.Error("Has(CapVideoCapture) = false, want true")
	}
	if !cap.Has(CapVideoCapture | CapStreaming) {
		t.Error("Has(CapVideoCapture|CapStreaming) = false, want true")
	}
	if cap.Has(CapVideoCapture | CapReadWrite) {
		t.Error("Has(CapVideoCapture|CapReadWrite) = true, want false")
	}
}

func TestCapabilityHasPrefersDeviceCapabilitiesWhenProvided(t *testing.T) {
	cap := Capability{
		Capabilities:       CapVideoCapture | CapVideoCaptureMPlane | CapDeviceCapabilities,
		DeviceCapabilities: CapVideoCapture | CapStreaming,
	}

	if !cap.Has(CapVideoCapture | CapStreaming) {
		t.Error("Has(CapVideoCapture|CapStreaming) = false, want true")
	}
	if cap.Has(CapVideoCaptureMPlane) {
		t.Error("Has(CapVideoCaptureMPlane) = true, want false: that bit is only in the whole-device set")
	}
}

func TestCapabilityHasFallsBackToCapabilitiesWithoutDeviceCaps(t *testing.T) {
	cap := Capability{Capabilities: CapVideoCapture | CapReadWrite}

	if !cap.Has(CapVideoCapture | CapReadWrite) {
		t.Error("Has(CapVideoCapture|CapReadWrite) = false, want true")
	}
}

func TestCapabilityGetCapabilitiesPrefersDeviceCapabilities(t *testing.T) {
	cap := Capability{
		Capabilities:       CapVideoCapture | CapDeviceCapabilities,
		DeviceCapabilities: CapStreaming,
	}

	if got, want := cap.GetCapabilities(), uint32(CapStreaming); got != want {
		t.Errorf("GetCapabilities() = %#x, want %#x", got, want)
	}
}

func TestCapabilityGetCapabilitiesWithoutDeviceCapsFlag(t *testing.T) {
	cap := Capability{Capabilities: CapVideoCapture | CapStreaming}

	if got, want := cap.GetCapabilities(), uint32(CapVideoCapture|CapStreaming); got != want {
		t.Errorf("GetCapabilities() = %#x, want %#x", got, want)
	}
}

func TestCapabilityStringIncludesIdentification(t *testing.T) {
	cap := Capability{Driver: "uvcvideo", Card: "HD Webcam C920", BusInfo: "usb-0000:00:14.0-1"}

	got := cap.String()
	want := "driver: uvcvideo; card: HD Webcam C920; bus info: usb-0000:00:14.0-1"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
