// Package metrics defines the prometheus instruments for the proctoring
// pipeline. Registration happens at import time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proctor_frames_submitted_total",
		Help: "Frames submitted to the analysis queue",
	})

	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proctor_frames_dropped_total",
		Help: "Buffered frames superseded before analysis (last write wins)",
	})

	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proctor_analyses_total",
		Help: "Remote model analysis cycles by outcome",
	}, []string{"status"})

	ViolationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proctor_violations_total",
		Help: "Violation events emitted past the confidence gate",
	}, []string{"type"})

	RateLimitRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "proctor_ratelimit_rejected_total",
		Help: "Requests rejected by the edge rate limiter",
	})
)
