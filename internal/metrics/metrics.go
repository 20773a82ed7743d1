package metrics

import (
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vncsmyrnk/pollvote/internal/core/domain"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
)

// VoteMetrics counts vote outcomes and times CastVote. Outcomes are labelled
// by rejection reason, "accepted" for successful votes.
type VoteMetrics struct {
	Outcomes *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

var _ ports.VoteMetrics = (*VoteMetrics)(nil)

func NewVoteMetrics(reg prometheus.Registerer, namespace string) *VoteMetrics {
	factory := promauto.With(reg)
	return &VoteMetrics{
		Outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "votes_total",
				Help:      "Total number of vote attempts by outcome",
			},
			[]string{"outcome"},
		),
		Latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "cast_vote_seconds",
				Help:      "Histogram of CastVote latency",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
			},
			[]string{"outcome"},
		),
	}
}

func (m *VoteMetrics) ObserveVote(_ uuid.UUID, reason domain.VoteRejection, elapsed time.Duration) {
	outcome := string(reason)
	if reason == domain.RejectionNone {
		outcome = "accepted"
	}
	m.Outcomes.WithLabelValues(outcome).Inc()
	m.Latency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
