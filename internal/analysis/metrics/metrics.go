package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the analysis module.
type Metrics struct {
	// Phase latencies: local_scan, patent_search, organism_search
	PhaseLatency *prometheus.HistogramVec

	// Verdicts by mode ("full", "local") and risk level
	Verdicts *prometheus.CounterVec

	// Failed analyses by domain error code
	Failures *prometheus.CounterVec

	// Compliance violations by jurisdiction and severity
	Violations *prometheus.CounterVec

	// Overall analysis latency by mode
	AnalyzeLatency *prometheus.HistogramVec
}

// New creates a new Metrics instance with all analysis metrics registered.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the analysis metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PhaseLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seqguard_analysis_phase_duration_seconds",
			Help:    "Duration of each analysis phase",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 5, 30, 60, 180, 360},
		}, []string{"phase"}),

		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "seqguard_analysis_verdicts_total",
			Help: "Completed analyses by mode and risk level",
		}, []string{"mode", "risk_level"}),

		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "seqguard_analysis_failures_total",
			Help: "Failed analyses by error code",
		}, []string{"code"}),

		Violations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "seqguard_compliance_violations_total",
			Help: "Compliance violations found by jurisdiction and severity",
		}, []string{"jurisdiction", "severity"}),

		AnalyzeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seqguard_analysis_duration_seconds",
			Help:    "Duration of a full analysis including remote searches",
			Buckets: []float64{0.01, 0.1, 1, 10, 30, 60, 120, 240, 360},
		}, []string{"mode"}),
	}
}

// ObservePhase records the duration of one analysis phase.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m != nil {
		m.PhaseLatency.WithLabelValues(phase).Observe(d.Seconds())
	}
}

// IncrementVerdict records a completed analysis.
func (m *Metrics) IncrementVerdict(mode, riskLevel string) {
	if m != nil {
		m.Verdicts.WithLabelValues(mode, riskLevel).Inc()
	}
}

// IncrementFailure records a failed analysis.
func (m *Metrics) IncrementFailure(code string) {
	if m != nil {
		m.Failures.WithLabelValues(code).Inc()
	}
}

// AddViolations records n violations for a jurisdiction and severity.
func (m *Metrics) AddViolations(jurisdiction, severity string, n int) {
	if m != nil && n > 0 {
		m.Violations.WithLabelValues(jurisdiction, severity).Add(float64(n))
	}
}

// ObserveAnalyze records the total analysis duration.
func (m *Metrics) ObserveAnalyze(mode string, d time.Duration) {
	if m != nil {
		m.AnalyzeLatency.WithLabelValues(mode).Observe(d.Seconds())
	}
}
