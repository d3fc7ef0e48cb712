package tx

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var TransactionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "dispatch",
		Subsystem: "db",
		Name:      "transactions_total",
		Help:      "Finished transactions by isolation level and result",
	},
	[]string{"isolation", "result"},
)
