package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the state machine.
type Metrics struct {
	transitions *prometheus.CounterVec
}

// NewMetrics registers the state machine metrics on reg. A nil reg keeps
// them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		transitions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "showcase_state_transitions_total",
			Help: "Transition requests handled by the lifecycle state machine.",
		}, []string{"from", "to", "outcome"}),
	}
}

// Transitions returns the counter for one from/to/outcome combination.
func (m *Metrics) Transitions(from, to State, outcome Outcome) prometheus.Counter {
	return m.transitions.WithLabelValues(string(from), string(to), outcome.String())
}
