package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	matches      *prometheus.CounterVec
	tiers        *prometheus.CounterVec
	tierRequests *prometheus.CounterVec
	scorePercent prometheus.Histogram
	rejected     *prometheus.CounterVec
}

// NewMetrics registers the match collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kindred_matches_total",
			Help: "Completed evaluations by matched profile.",
		}, []string{"profile"}),
		tiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kindred_tiers_total",
			Help: "Completed evaluations by tier.",
		}, []string{"tier"}),
		tierRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kindred_tier_requests_total",
			Help: "Tier-only classifications by tier. Not counted as evaluations.",
		}, []string{"tier"}),
		scorePercent: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kindred_match_score_percent",
			Help:    "Displayed match percentage of the winning profile.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kindred_rejected_requests_total",
			Help: "Requests rejected before scoring, by reason.",
		}, []string{"reason"}),
	}
	reg.MustRegister(m.matches, m.tiers, m.tierRequests, m.scorePercent, m.rejected)
	return m
}

func (m *Metrics) observeMatch(profileID, tier string, percent int) {
	if m == nil {
		return
	}
	m.matches.WithLabelValues(profileID).Inc()
	m.tiers.WithLabelValues(tier).Inc()
	m.scorePercent.Observe(float64(percent))
}

func (m *Metrics) observeTier(tier string) {
	if m == nil {
		return
	}
	m.tierRequests.WithLabelValues(tier).Inc()
}

func (m *Metrics) reject(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}
