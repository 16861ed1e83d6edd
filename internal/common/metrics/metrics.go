// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WizardAdvances = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_advances_total",
			Help: "Total number of successful step advances",
		},
		[]string{"section"},
	)

	WizardValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_validation_failures_total",
			Help: "Total number of blocked transitions by first failing field",
		},
		[]string{"section", "field"},
	)

	WizardSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_submissions_total",
			Help: "Total number of submission attempts by outcome",
		},
		[]string{"status"},
	)

	DraftWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wizard_draft_write_failures_total",
			Help: "Total number of swallowed draft store write failures",
		},
	)

	SuggestionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_suggestion_requests_total",
			Help: "Total number of suggestion requests by field and outcome",
		},
		[]string{"field", "status"},
	)

	SuggestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "wizard_suggestion_duration_seconds",
			Help: "Duration of suggestion service calls in seconds",
		},
		[]string{"field"},
	)
)
