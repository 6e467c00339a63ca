package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devchat_messages_persisted_total",
		Help: "Messages accepted by the store.",
	})

	SeenTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devchat_seen_transitions_total",
		Help: "Messages flipped from unseen to seen.",
	})

	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devchat_realtime_events_emitted_total",
		Help: "Realtime events emitted to live connections.",
	}, []string{"event"})

	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devchat_realtime_events_dropped_total",
		Help: "Realtime events that could not be written to a connection.",
	}, []string{"event"})

	OpenSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "devchat_open_sockets",
		Help: "Currently bound socket connections.",
	})
)

// Handler exposes the default registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
