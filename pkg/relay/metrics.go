package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_active_connections",
		Help: "Clients currently attached to the relay.",
	})
	metricConnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_connections_total",
		Help: "Total accepted relay connections.",
	})
	metricMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_messages_total",
		Help: "Messages fanned out, by wire type.",
	}, []string{"type"})
	metricDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_dropped_messages_total",
		Help: "Malformed messages dropped by the relay.",
	})
)
