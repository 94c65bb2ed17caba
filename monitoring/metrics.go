package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "entry_tokens_issued_total",
			Help: "Total entry tokens issued",
		},
	)

	verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entry_verifications_total",
			Help: "Entry verification attempts by outcome",
		},
		[]string{"outcome"},
	)

	burnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticket_burn_duration_seconds",
			Help:    "Duration of the ledger burn call",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)
)

func RecordTokenIssued() {
	tokensIssued.Inc()
}

// RecordVerification counts an attempt. outcome is ENTRY_APPROVED or the
// specific denial reason.
func RecordVerification(outcome string) {
	verifications.WithLabelValues(outcome).Inc()
}

func ObserveBurn(d time.Duration) {
	burnDuration.Observe(d.Seconds())
}
