// Package metrics exposes the prometheus collectors every running
// pipeline reports through. Collectors are registered at package init via
// promauto, the same way the ambient stack's own metrics package does it;
// cmd/v4piped only has to mount promhttp.Handler().
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesCaptured = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "v4pipe_frames_captured_total",
			Help: "Total frames dequeued from the device by pipeline",
		},
		[]string{"pipeline"},
	)

	FramesDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "v4pipe_frames_delivered_total",
			Help: "Total frames handed to every registered listener by pipeline",
		},
		[]string{"pipeline"},
	)

	LostFrames = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "v4pipe_lost_frames",
			Help: "Frames captured but not yet delivered to listeners, by pipeline",
		},
		[]string{"pipeline"},
	)

	ListenerCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "v4pipe_listener_count",
			Help: "Number of listeners currently registered, by pipeline",
		},
		[]string{"pipeline"},
	)

	CaptureLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "v4pipe_capture_latency_seconds",
			Help:    "Time from buffer queue to dequeue ready, by pipeline",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pipeline"},
	)

	PipelineState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "v4pipe_pipeline_state",
			Help: "Current pipeline state (0=uninitialized, 1=initialized, 2=capturing, 3=stopping)",
		},
		[]string{"pipeline"},
	)
)

// Snapshot is the subset of pipeline.Stats this package turns into gauges
// and counter deltas. It is defined locally rather than importing
// pipeline.Stats directly so metrics has no dependency on pipeline -
// the caller (cmd/v4piped) adapts each pipeline's Stats value into this
// shape.
type Snapshot struct {
	Name            string
	FramesCaptured  uint64
	FramesDelivered uint64
	LostFrames      uint32
	ListenerCount   uint32
}

// lastCaptured and lastDelivered track the previous cumulative counts seen
// per pipeline so repeated snapshots turn into counter Add() deltas rather
// than overwriting a monotonic counter - Report is expected to be called
// periodically (e.g. by a ticker in cmd/v4piped) with the latest
// pipeline.Stats snapshot.
var (
	lastCaptured  = map[string]uint64{}
	lastDelivered = map[string]uint64{}
)

// Report updates every gauge/counter for snap.Name from a pipeline.Stats
// snapshot. It is not safe for concurrent calls from multiple goroutines,
// whatever the pipeline names: every call writes the same package-level
// maps (cmd/v4piped's single reporting ticker makes every call serially).
func Report(snap Snapshot) {
	if last := lastCaptured[snap.Name]; snap.FramesCaptured > last {
		FramesCaptured.WithLabelValues(snap.Name).Add(float64(snap.FramesCaptured - last))
	}
	lastCaptured[snap.Name] = snap.FramesCaptured

	if last := lastDelivered[snap.Name]; snap.FramesDelivered > last {
		FramesDelivered.WithLabelValues(snap.Name).Add(float64(snap.FramesDelivered - last))
	}
	lastDelivered[snap.Name] = snap.FramesDelivered

	LostFrames.WithLabelValues(snap.Name).Set(float64(snap.LostFrames))
	ListenerCount.WithLabelValues(snap.Name).Set(float64(snap.ListenerCount))
}

// SetPipelineState records state as a gauge value, 0-3 per the
// pipeline.State ordering.
func SetPipelineState(name string, state int) {
	PipelineState.WithLabelValues(name).Set(float64(state))
}

// ObserveCaptureLatency records one queue-to-dequeue duration, in seconds,
// for the named pipeline.
func ObserveCaptureLatency(name string, seconds float64) {
	CaptureLatency.WithLabelValues(name).Observe(seconds)
}
