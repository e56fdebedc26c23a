// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostulationsSubmitted counts postulations created or resubmitted.
	PostulationsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postulate_postulations_submitted_total",
		Help: "Number of postulations submitted (including resubmissions).",
	})

	// PostulationsAccepted counts supplier acceptances.
	PostulationsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postulate_postulations_accepted_total",
		Help: "Number of postulations accepted by suppliers.",
	})

	// PostulationsRejected counts supplier rejections, including the
	// capacity cascade.
	PostulationsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postulate_postulations_rejected_total",
		Help: "Number of postulations rejected.",
	})

	// PostulationsExpired counts postulations rejected by the sweeper.
	PostulationsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postulate_postulations_expired_total",
		Help: "Number of pending postulations expired by the sweeper.",
	})

	// SessionsGenerated counts work sessions created on acceptance.
	SessionsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postulate_sessions_generated_total",
		Help: "Number of work sessions generated from accepted postulations.",
	})

	// SweepRuns counts completed expiration sweeps.
	SweepRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postulate_sweep_runs_total",
		Help: "Number of completed expiration sweeps.",
	})
)
