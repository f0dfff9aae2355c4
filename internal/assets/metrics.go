package assets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the loader.
type Metrics struct {
	passes       prometheus.Counter
	loaded       *prometheus.CounterVec
	failures     *prometheus.CounterVec
	passDuration prometheus.Histogram
}

// NewMetrics registers the loader metrics on reg. A nil reg keeps them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		passes: factory.NewCounter(prometheus.CounterOpts{
			Name: "showcase_asset_load_passes_total",
			Help: "Total number of asset load passes started.",
		}),
		loaded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "showcase_assets_loaded_total",
			Help: "Total number of assets loaded, by category.",
		}, []string{"category"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "showcase_asset_failures_total",
			Help: "Total number of failed asset loads, by category.",
		}, []string{"category"}),
		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "showcase_asset_pass_duration_seconds",
			Help:    "Duration of asset load passes.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
}

// Passes exposes the pass counter, mainly for tests and debug overlays.
func (m *Metrics) Passes() prometheus.Counter { return m.passes }
