// Package metrics exposes Prometheus metrics for gate runs and overrides.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aristath/gatekeeper/internal/domain"
)

// Registry holds the gate engine metrics on its own Prometheus registry
type Registry struct {
	registry *prometheus.Registry

	Runs          *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	GateOutcomes  *prometheus.CounterVec
	Confidence    prometheus.Histogram
	Overrides     *prometheus.CounterVec
	ArchiveUpload *prometheus.CounterVec
}

// NewRegistry creates and registers all metrics
func NewRegistry() *Registry {
	m := &Registry{
		registry: prometheus.NewRegistry(),

		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_runs_total",
				Help: "Gate runs by final verdict and whether portfolio action is allowed",
			},
			[]string{"verdict", "allowed"},
		),

		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gatekeeper_run_duration_seconds",
				Help:    "Duration of a full gate sequence",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
		),

		GateOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_gate_outcomes_total",
				Help: "Gate outcomes by gate and status",
			},
			[]string{"gate", "status"},
		),

		Confidence: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gatekeeper_verdict_confidence",
				Help:    "Verdict confidence of completed runs (0-100)",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),

		Overrides: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_overrides_total",
				Help: "Override decisions by verdict type and outcome",
			},
			[]string{"verdict", "accepted"},
		),

		ArchiveUpload: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatekeeper_audit_archives_total",
				Help: "Audit archive uploads by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.Runs,
		m.RunDuration,
		m.GateOutcomes,
		m.Confidence,
		m.Overrides,
		m.ArchiveUpload,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveRun records a completed gate run
func (m *Registry) ObserveRun(result domain.GateResult, elapsed time.Duration) {
	m.Runs.WithLabelValues(string(result.FinalVerdict), strconv.FormatBool(result.AllowsPortfolioAction())).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
	m.Confidence.Observe(result.VerdictConfidence)
	for _, g := range result.Gates {
		m.GateOutcomes.WithLabelValues(string(g.Gate), string(g.Status)).Inc()
	}
}

// ObserveOverride records an override decision
func (m *Registry) ObserveOverride(verdict domain.FinalVerdictType, accepted bool) {
	m.Overrides.WithLabelValues(string(verdict), strconv.FormatBool(accepted)).Inc()
}

// ObserveArchive records the result of an audit archive upload
func (m *Registry) ObserveArchive(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.ArchiveUpload.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
