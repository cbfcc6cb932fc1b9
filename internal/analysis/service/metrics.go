package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	taskRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devguard_analysis_runs_total",
		Help: "Completed analysis task runs, by task and outcome.",
	}, []string{"task", "outcome"})

	taskSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devguard_analysis_skipped_total",
		Help: "Analysis task ticks skipped because the previous run was still executing.",
	}, []string{"task"})

	taskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "devguard_analysis_duration_seconds",
		Help:    "Wall time of analysis task runs.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"task"})
)
