// Package metrics holds the Prometheus collectors for workflow runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the workflow collectors. A nil *Metrics records nothing.
type Metrics struct {
	runsTotal          *prometheus.CounterVec
	operationsTotal    prometheus.Counter
	rejectedTotal      prometheus.Counter
	remoteCallDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customer_match_runs_total",
				Help: "Count of workflow runs by outcome",
			},
			[]string{"outcome"},
		),
		operationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "customer_match_operations_submitted_total",
				Help: "Number of add operations sent to offline user data jobs",
			},
		),
		rejectedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "customer_match_operations_rejected_total",
				Help: "Number of add operations rejected through partial failure",
			},
		),
		remoteCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "customer_match_remote_call_duration_seconds",
				Help:    "Latency of Google Ads API calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "status"},
		),
	}
	reg.MustRegister(m.runsTotal, m.operationsTotal, m.rejectedTotal, m.remoteCallDuration)
	return m
}

// RunFinished counts one run. outcome is "success" or "error".
func (m *Metrics) RunFinished(outcome string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
}

// OperationsSubmitted records one addOperations request.
func (m *Metrics) OperationsSubmitted(submitted, rejected int) {
	if m == nil {
		return
	}
	m.operationsTotal.Add(float64(submitted))
	m.rejectedTotal.Add(float64(rejected))
}

// ObserveCall records how long a remote call named op took.
func (m *Metrics) ObserveCall(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.remoteCallDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}
