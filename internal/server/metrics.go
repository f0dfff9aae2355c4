package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the lobby.
type Metrics struct {
	connectedClients prometheus.Gauge
	receivedBytes    prometheus.Counter
	sentBytes        prometheus.Counter
	receivedFrames   *prometheus.CounterVec
	sentFrames       *prometheus.CounterVec
	auths            *prometheus.CounterVec
}

// NewMetrics registers the lobby metrics on reg. A nil reg keeps them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		connectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lobby_connected_clients",
			Help: "Number of currently connected clients.",
		}),
		receivedBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "lobby_received_bytes_total",
			Help: "Total bytes received from clients.",
		}),
		sentBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "lobby_sent_bytes_total",
			Help: "Total bytes queued for clients.",
		}),
		receivedFrames: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lobby_received_frames_total",
			Help: "Frames received from clients, by type.",
		}, []string{"type"}),
		sentFrames: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lobby_sent_frames_total",
			Help: "Frames sent to clients, by type.",
		}, []string{"type"}),
		auths: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lobby_auth_total",
			Help: "Authentication attempts, by result.",
		}, []string{"result"}),
	}
}
