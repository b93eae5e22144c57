// Package metrics exposes Prometheus metrics for correlation runs and jobs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soltixdb/cets/internal/analytics/correlation"
)

// Job statuses
const (
	JobQueued    = "queued"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// Registry holds all CETS metrics on a dedicated Prometheus registry
type Registry struct {
	reg *prometheus.Registry

	// TestsTotal counts tests by tester and outcome (correlated or not)
	TestsTotal *prometheus.CounterVec

	// AnalysisDuration observes whole engine runs
	AnalysisDuration *prometheus.HistogramVec

	// JobsTotal counts asynchronous jobs by status
	JobsTotal *prometheus.CounterVec
}

// NewRegistry creates the registry with Go runtime and process collectors
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		TestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cets_tests_total",
				Help: "Total number of dimension/event tests by tester and result",
			},
			[]string{"tester", "result"},
		),
		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cets_analysis_duration_seconds",
				Help:    "Duration of correlation analysis runs in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
			},
			[]string{"tester"},
		),
		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cets_jobs_total",
				Help: "Total number of analysis jobs by status",
			},
			[]string{"status"},
		),
	}

	r.reg.MustRegister(
		r.TestsTotal,
		r.AnalysisDuration,
		r.JobsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveTest records one tester outcome
func (r *Registry) ObserveTest(tester string, result correlation.TestResult) {
	r.TestsTotal.WithLabelValues(tester, strconv.FormatBool(result.Correlated)).Inc()
}

// ObserveRun records the duration of one engine run
func (r *Registry) ObserveRun(tester string, elapsed time.Duration) {
	r.AnalysisDuration.WithLabelValues(tester).Observe(elapsed.Seconds())
}

// ObserveJob records a job status transition
func (r *Registry) ObserveJob(status string) {
	r.JobsTotal.WithLabelValues(status).Inc()
}

// Gatherer exposes the underlying registry
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns the HTTP handler serving the metrics
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
