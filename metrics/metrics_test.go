package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestReportAddsCounterDeltas(t *testing.T) {
	FramesCaptured.Reset()
	FramesDelivered.Reset()
	LostFrames.Reset()
	ListenerCount.Reset()
	delete(lastCaptured, "cam0")
	delete(lastDelivered, "cam0")

	Report(Snapshot{Name: "cam0", FramesCaptured: 10, FramesDelivered: 8, LostFrames: 2, ListenerCount: 1})
	Report(Snapshot{Name: "cam0", FramesCaptured: 25, FramesDelivered: 20, LostFrames: 5, ListenerCount: 1})

	captured, err := FramesCaptured.GetMetricWithLabelValues("cam0")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues: %v", err)
	}
	if got := testutil.ToFloat64(captured); got != 25 {
		t.Fatalf("FramesCaptured cumulative = %v, want 25", got)
	}

	delivered, err := FramesDelivered.GetMetricWithLabelValues("cam0")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues: %v", err)
	}
	if got := testutil.ToFloat64(delivered); got != 20 {
		t.Fatalf("FramesDelivered cumulative = %v, want 20", got)
	}

	lost, err := LostFrames.GetMetricWithLabelValues("cam0")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues: %v", err)
	}
	if got := testutil.ToFloat64(lost); got != 5 {
		t.Fatalf("LostFrames gauge = %v, want 5 (latest snapshot, not cumulative)", got)
	}
}

func TestReportIgnoresStaleOrDecreasingCounts(t *testing.T) {
	FramesCaptured.Reset()
	delete(lastCaptured, "cam1")

	Report(Snapshot{Name: "cam1", FramesCaptured: 50})
	Report(Snapshot{Name: "cam1", FramesCaptured: 50})
	Report(Snapshot{Name: "cam1", FramesCaptured: 40})

	captured, err := FramesCaptured.GetMetricWithLabelValues("cam1")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues: %v", err)
	}
	if got := testutil.ToFloat64(captured); got != 50 {
		t.Fatalf("FramesCaptured after a repeated and a decreasing snapshot = %v, want 50 (no double-add, no add on decrease)", got)
	}
}

func TestSetPipelineStateAndObserveCaptureLatencyDoNotPanic(t *testing.T) {
	SetPipelineState("cam0", 2)
	ObserveCaptureLatency("cam0", 0.033)
}
