// Package metrics exposes the A5 Prometheus instrumentation: counters and
// gauges for the script-pointer and performer-tracking pipelines, with one
// constructor per worker, each registering its set on a caller-supplied
// registry (see internal/observability's collector split in the teacher
// repo), rather than a single monolithic struct of every metric.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

// ScriptPointer groups the C4 pipeline's metrics.
type ScriptPointer struct {
	PointersPublished prometheus.Counter
	TranscribeErrors  prometheus.Counter
	MatchScore        prometheus.Histogram
	TickDuration      prometheus.Histogram
}

// NewScriptPointer registers and returns the script-pointer metric set.
func NewScriptPointer(reg prometheus.Registerer) *ScriptPointer {
	m := &ScriptPointer{
		PointersPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stagehand",
			Subsystem: "script_pointer",
			Name:      "pointers_published_total",
			Help:      "Number of script pointer positions published to MQTT.",
		}),
		TranscribeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stagehand",
			Subsystem: "script_pointer",
			Name:      "transcribe_errors_total",
			Help:      "Number of ASR transcription errors.",
		}),
		MatchScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stagehand",
			Subsystem: "script_pointer",
			Name:      "match_score",
			Help:      "Fuzzy-match score of the window search that produced a pointer.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stagehand",
			Subsystem: "script_pointer",
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one transcribe-and-match tick.",
		}),
	}
	reg.MustRegister(m.PointersPublished, m.TranscribeErrors, m.MatchScore, m.TickDuration)
	return m
}

// PerformerTracker groups the C8/C9 pipelines' metrics.
type PerformerTracker struct {
	FramesProcessed  prometheus.Counter
	EmptyReads       prometheus.Counter
	IdentifiedTracks prometheus.Counter
	ConsensusWrites  prometheus.Counter
	LampTicks        prometheus.Counter
	FrameDuration    prometheus.Histogram
}

// NewPerformerTracker registers and returns the tracking/lamp metric set.
func NewPerformerTracker(reg prometheus.Registerer) *PerformerTracker {
	m := &PerformerTracker{
		FramesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stagehand",
			Subsystem: "performer_tracker",
			Name:      "frames_processed_total",
			Help:      "Number of camera frames processed.",
		}),
		EmptyReads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stagehand",
			Subsystem: "performer_tracker",
			Name:      "empty_reads_total",
			Help:      "Number of consecutive-empty-frame events observed from the capture device.",
		}),
		IdentifiedTracks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stagehand",
			Subsystem: "performer_tracker",
			Name:      "identified_tracks_total",
			Help:      "Number of tracked detections resolved to an identity.",
		}),
		ConsensusWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stagehand",
			Subsystem: "performer_tracker",
			Name:      "consensus_writes_total",
			Help:      "Number of real-world position writes driven by track consensus.",
		}),
		LampTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stagehand",
			Subsystem: "lamp",
			Name:      "ticks_total",
			Help:      "Number of lamp-control loop steps executed.",
		}),
		FrameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stagehand",
			Subsystem: "performer_tracker",
			Name:      "frame_duration_seconds",
			Help:      "Wall time of one frame's adjust+detect+identify pass.",
		}),
	}
	reg.MustRegister(m.FramesProcessed, m.EmptyReads, m.IdentifiedTracks, m.ConsensusWrites, m.LampTicks, m.FrameDuration)
	return m
}

// Handler returns the standard promhttp exposition handler for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
