package pipeline

import (
	"testing"

	"github.com/coholabs/v4pipe/errs"
	"github.com/coholabs/v4pipe/v4l2"
)

func testParams(name string) Params {
	return Params{
		Name:          name,
		DevicePath:    "/dev/v4pipe-test-nonexistent",
		BufferType:    v4l2.BufTypeVideoCapture,
		PixelFormat:   v4l2.PixelFmtYUYV,
		Colorspace:    v4l2.ColorspaceDefault,
		CaptureArea:   v4l2.Area{Width: 640, Height: 480},
		ComposingArea: v4l2.Rect{Width: 640, Height: 480},
		BufferCount:   4,
		MemoryStrategy: v4l2.MemoryMmap,
		AwaitMode:      v4l2.Blocking,
	}
}

func TestNewPipelineStartsUninitialized(t *testing.T) {
	p := New(testParams("cam0"))
	if got := p.State(); got != StateUninitialized {
		t.Fatalf("State() = %v, want %v", got, StateUninitialized)
	}
}

func TestStartOnMissingDeviceFailsUnknownDevice(t *testing.T) {
	p := New(testParams("cam1"))

	err := p.Start()
	if err == nil {
		t.Fatal("Start() on a nonexistent device path succeeded, want error")
	}
	if !errs.Is(err, errs.UnknownDevice) {
		t.Fatalf("Start() error = %v, want kind UnknownDevice", err)
	}
	if got := p.State(); got != StateUninitialized {
		t.Fatalf("State() after failed Start = %v, want %v (full unwind)", got, StateUninitialized)
	}
}

func TestStopWithoutStartIsNoop(t *testing.T) {
	p := New(testParams("cam2"))
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() on a never-started pipeline = %v, want nil", err)
	}
	if got := p.State(); got != StateUninitialized {
		t.Fatalf("State() after no-op Stop = %v, want %v", got, StateUninitialized)
	}
}

func TestRegisterListenerBeforeStartFailsInit(t *testing.T) {
	p := New(testParams("cam3"))

	err := p.RegisterListener(Listener{Name: "tally", OnFrame: func(*Frame, any) {}})
	if err == nil {
		t.Fatal("RegisterListener before Start succeeded, want error")
	}
	if !errs.Is(err, errs.Init) {
		t.Fatalf("RegisterListener error = %v, want kind Init", err)
	}
}

func TestUnregisterUnknownListenerFailsParams(t *testing.T) {
	p := New(testParams("cam4"))

	err := p.UnregisterListener("nobody")
	if err == nil {
		t.Fatal("UnregisterListener(\"nobody\") succeeded, want error")
	}
	if !errs.Is(err, errs.Params) {
		t.Fatalf("UnregisterListener error = %v, want kind Params", err)
	}
}

func TestStatsZeroValueOnFreshPipeline(t *testing.T) {
	p := New(testParams("cam5"))
	stats := p.Stats()
	if stats != (Stats{}) {
		t.Fatalf("Stats() on a fresh pipeline = %+v, want zero value", stats)
	}
}
