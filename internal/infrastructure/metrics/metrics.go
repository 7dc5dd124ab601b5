// Package metrics holds the Prometheus collectors of the submission
// pipeline: outcomes per kind, duration, compensations and notifications.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// submissionsTotal counts finished submissions by kind and outcome
	// (created, rejected, failed).
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_submissions_total",
			Help: "Submissions processed by the pipeline",
		},
		[]string{"kind", "outcome"},
	)

	submissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_submission_duration_seconds",
			Help:    "Wall time of a submission up to commit or abort",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	compensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_compensations_total",
			Help: "Aborted submissions whose artifacts were cleaned up, by result",
		},
		[]string{"kind", "result"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_notifications_total",
			Help: "Response notifications by delivery outcome",
		},
		[]string{"outcome"},
	)
)

const (
	OutcomeCreated  = "created"
	OutcomeRejected = "rejected" // client error, nothing written
	OutcomeFailed   = "failed"
)

func ObserveSubmission(kind, outcome string, started time.Time) {
	submissionsTotal.WithLabelValues(kind, outcome).Inc()
	submissionDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// ObserveCompensation records whether every cleanup step succeeded.
func ObserveCompensation(kind string, clean bool) {
	result := "clean"
	if !clean {
		result = "residue"
	}
	compensationsTotal.WithLabelValues(kind, result).Inc()
}

func ObserveNotification(outcome string) {
	notificationsTotal.WithLabelValues(outcome).Inc()
}
