// Package metrics exposes Prometheus collectors for the director.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xiaot623/gogo/director/internal/domain"
)

var (
	// quotesTotal counts quote requests by outcome code
	quotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "director_quotes_total",
			Help: "Total quote requests by outcome",
		},
		[]string{"outcome"},
	)

	// executionsTotal counts executions by final job status
	executionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "director_executions_total",
			Help: "Total plan executions by job status",
		},
		[]string{"status"},
	)

	// stepsTotal counts agent steps
	stepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "director_agent_steps_total",
			Help: "Total agent steps by agent and status",
		},
		[]string{"agent", "status"},
	)

	stepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "director_agent_step_duration_seconds",
			Help:    "Agent step latency",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"agent"},
	)

	// quotedCost tracks the estimated cost of produced plans
	quotedCost = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "director_quoted_cost",
			Help:    "Estimated total cost of quoted plans",
			Buckets: prometheus.ExponentialBuckets(0.00001, 10, 8),
		},
	)
)

// RecordQuote records a quote outcome. outcome is "ok" or an error code.
func RecordQuote(outcome string, totalCost float64) {
	quotesTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		quotedCost.Observe(totalCost)
	}
}

// RecordExecution records a finished execution.
func RecordExecution(status domain.JobStatus) {
	executionsTotal.WithLabelValues(string(status)).Inc()
}

// StepObserver records agent steps.
type StepObserver struct{}

// ObserveStep implements the executor observer.
func (StepObserver) ObserveStep(agent string, status domain.StepStatus, d time.Duration) {
	stepsTotal.WithLabelValues(agent, string(status)).Inc()
	stepDuration.WithLabelValues(agent).Observe(d.Seconds())
}
