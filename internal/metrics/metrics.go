package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// VoteMetrics covers the eligibility gate. A nil *VoteMetrics records nothing.
type VoteMetrics struct {
	Accepted     prometheus.Counter
	Rejected     *prometheus.CounterVec
	CastDuration prometheus.Histogram
}

func NewVoteMetrics(reg prometheus.Registerer, namespace string) *VoteMetrics {
	factory := promauto.With(reg)
	return &VoteMetrics{
		Accepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_accepted_total",
			Help:      "Total number of accepted votes",
		}),
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_rejected_total",
			Help:      "Total number of rejected vote attempts by reason",
		}, []string{"reason"}),
		CastDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vote_cast_seconds",
			Help:      "Time spent deciding and recording a vote attempt",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		}),
	}
}

func (m *VoteMetrics) ObserveAccepted(d time.Duration) {
	if m == nil {
		return
	}
	m.Accepted.Inc()
	m.CastDuration.Observe(d.Seconds())
}

func (m *VoteMetrics) ObserveRejected(reason string, d time.Duration) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
	m.CastDuration.Observe(d.Seconds())
}
