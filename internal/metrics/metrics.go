package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StageDuration observes wall time per pipeline stage.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "adlens_stage_duration_seconds",
		Help:    "Duration of analysis pipeline stages.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"stage"})

	// StageFailures counts stage-level failures that degraded a result
	// field without aborting the job.
	StageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adlens_stage_failures_total",
		Help: "Analysis stages that failed and left their result field absent.",
	}, []string{"stage"})

	// JobsProcessed counts finished analysis jobs by terminal status.
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adlens_jobs_processed_total",
		Help: "Analysis jobs processed, by terminal status.",
	}, []string{"status"})

	// FramesAnalyzed counts frames that went through the per-frame batch
	// analyzers.
	FramesAnalyzed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adlens_frames_analyzed_total",
		Help: "Frames consumed by per-frame batch analyzers.",
	})
)
