package order_status_changed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var MessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "dispatch",
		Subsystem: "kafka",
		Name:      "order_status_messages_total",
		Help:      "order.status.changed messages by processing outcome",
	},
	[]string{"outcome"},
)
