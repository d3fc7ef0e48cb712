package background

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TaskRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dispatch",
			Subsystem: "background",
			Name:      "task_runs_total",
			Help:      "Background task runs by result",
		},
		[]string{"task", "result"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dispatch",
			Subsystem: "background",
			Name:      "task_duration_seconds",
			Help:      "Background task run duration",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"task"},
	)
)
