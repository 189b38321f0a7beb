package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Onboarding Prometheus metrics. Standalone package to avoid import cycles
// between the flow services and HTTP packages.

var (
	SignupsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "onboarding_signups_completed_total",
		Help: "Completed signup flows by mode",
	}, []string{"mode"}) // fresh | claim | social

	ActivationsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "onboarding_activations_completed_total",
		Help: "Completed activation flows by reconciliation result",
	}, []string{"result"}) // bound | merged | handoff

	ClaimRedemptions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "onboarding_claim_redemptions_total",
		Help: "Claim token redemption attempts",
	}, []string{"result"}) // ok | invalid

	IDMRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "onboarding_idm_request_duration_seconds",
		Help:    "Latency of calls to the IDM core",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

// Register registers the onboarding metrics on the given registry
// (or the default registry if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		SignupsCompleted, ActivationsCompleted, ClaimRedemptions, IDMRequestDuration,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// ObserveIDMRequest records one IDM core round trip.
func ObserveIDMRequest(op string, d time.Duration) {
	IDMRequestDuration.WithLabelValues(op).Observe(d.Seconds())
}
