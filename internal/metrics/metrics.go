// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "huddle",
		Subsystem: "signal",
		Name:      "connections_active",
		Help:      "Open signaling connections.",
	})

	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "huddle",
		Subsystem: "signal",
		Name:      "sessions_active",
		Help:      "Sessions with at least one connected participant.",
	})

	EventsRouted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "huddle",
		Subsystem: "signal",
		Name:      "events_routed_total",
		Help:      "Events delivered to participants, by type.",
	}, []string{"type"})

	DeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "huddle",
		Subsystem: "signal",
		Name:      "delivery_failures_total",
		Help:      "Sends that failed and evicted their channel.",
	})

	AuthRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "huddle",
		Subsystem: "signal",
		Name:      "auth_rejections_total",
		Help:      "Connection attempts rejected during authorization, by reason.",
	}, []string{"reason"})

	ProtocolErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "huddle",
		Subsystem: "signal",
		Name:      "protocol_errors_total",
		Help:      "Malformed or unsupported inbound frames.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
