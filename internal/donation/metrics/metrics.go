// Package metrics exposes lifecycle counters for the donation core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts lifecycle outcomes. Transition counters are labeled by the
// target status so dashboards can graph the funnel from created to completed.
type Metrics struct {
	Created       prometheus.Counter
	Transitions   *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
	SweepDuration prometheus.Histogram
	SweepExpired  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Created: factory.NewCounter(prometheus.CounterOpts{
			Name: "dana_donations_created_total",
			Help: "Donations created.",
		}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dana_donation_transitions_total",
			Help: "Successful lifecycle transitions by target status.",
		}, []string{"to"}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dana_donation_transition_rejections_total",
			Help: "Rejected lifecycle transitions by requested status and error code.",
		}, []string{"to", "code"}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dana_expiry_sweep_duration_seconds",
			Help:    "Duration of expiry sweep runs.",
			Buckets: prometheus.DefBuckets,
		}),
		SweepExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "dana_expiry_sweep_expired_total",
			Help: "Donations marked expired by the sweep.",
		}),
	}
}

// NewNop returns metrics bound to a throwaway registry, for tests and
// services wired without observability.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
