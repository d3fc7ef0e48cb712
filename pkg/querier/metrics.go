package querier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var QueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "dispatch",
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Duration of SQL statements by kind and outcome",
		Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	},
	[]string{"op", "in_tx", "result"},
)
