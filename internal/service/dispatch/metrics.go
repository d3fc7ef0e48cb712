package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_broadcasts_total",
			Help: "Assignment broadcasts by result",
		},
		[]string{"result"},
	)

	AcceptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_accepts_total",
			Help: "Assignment accept attempts by result",
		},
		[]string{"result"},
	)

	CandidatesPerBroadcast = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_candidates_per_broadcast",
			Help:    "Number of couriers offered a single order",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 20, 50},
		},
	)
)
