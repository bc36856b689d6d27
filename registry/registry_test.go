package registry

import (
	"testing"

	"github.com/coholabs/v4pipe/errs"
	"github.com/coholabs/v4pipe/pipeline"
	"github.com/coholabs/v4pipe/v4l2"
)

func testParams(name string) pipeline.Params {
	return pipeline.Params{
		Name:           name,
		DevicePath:     "/dev/v4pipe-test-nonexistent",
		BufferType:     v4l2.BufTypeVideoCapture,
		PixelFormat:    v4l2.PixelFmtYUYV,
		Colorspace:     v4l2.ColorspaceDefault,
		CaptureArea:    v4l2.Area{Width: 640, Height: 480},
		ComposingArea:  v4l2.Rect{Width: 640, Height: 480},
		BufferCount:    4,
		MemoryStrategy: v4l2.MemoryMmap,
		AwaitMode:      v4l2.Blocking,
	}
}

func TestStartFailureLeavesRegistryEmpty(t *testing.T) {
	r := New()

	if err := r.Start(testParams("cam0")); err == nil {
		t.Fatal("Start() against a nonexistent device succeeded, want error")
	}

	if names := r.Names(); len(names) != 0 {
		t.Fatalf("Names() after a failed Start = %v, want empty (P4)", names)
	}
}

func TestStopUnknownPipelineFailsParams(t *testing.T) {
	r := New()

	err := r.Stop("nobody")
	if err == nil {
		t.Fatal("Stop(\"nobody\") succeeded, want error")
	}
	if !errs.Is(err, errs.Params) {
		t.Fatalf("Stop() error = %v, want kind Params", err)
	}
}

func TestRegisterListenerUnknownPipelineFailsParams(t *testing.T) {
	r := New()

	err := r.RegisterListener("nobody", pipeline.Listener{Name: "tally"})
	if !errs.Is(err, errs.Params) {
		t.Fatalf("RegisterListener() error = %v, want kind Params", err)
	}
}

func TestStateUnknownPipelineFailsParams(t *testing.T) {
	r := New()

	_, err := r.State("nobody")
	if !errs.Is(err, errs.Params) {
		t.Fatalf("State() error = %v, want kind Params", err)
	}
}

func TestDefaultReturnsSameInstance(t *testing.T) {
	a := Default()
	b := Default()
	if a != b {
		t.Fatal("Default() returned two different Registry instances")
	}
}
