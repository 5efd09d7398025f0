// Package obsmetrics registers the prometheus counters and histograms the
// analyzer increments during a run, grounded on vjache-cie's pattern of
// constructing a small fixed set of collectors once and registering them
// against a caller-supplied *prometheus.Registry (so an embedding host
// controls the /metrics endpoint, not this package).
package obsmetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the collectors a phpanalyze.Analyze call reports into. The
// zero value is not usable; construct with New.
type Metrics struct {
	IssuesByCode   *prometheus.CounterVec
	PhaseDuration  *prometheus.HistogramVec
	FilesAnalyzed  prometheus.Counter
	AnalysisErrors prometheus.Counter
}

// New creates a Metrics and registers its collectors against reg. Passing a
// fresh prometheus.NewRegistry() is appropriate for tests; an embedding
// host's production registry is what a real scrape target in CLI use would
// plug in (spec.md §6 "time_in_analysis" output field given real
// instrumentation instead of a bare duration).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IssuesByCode: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "phpanalyze",
			Name:      "issues_total",
			Help:      "Number of analysis issues emitted, by issue code.",
		}, []string{"code", "level"}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "phpanalyze",
			Name:      "phase_duration_seconds",
			Help:      "Wall-clock duration of each analysis phase.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase"}),
		FilesAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "phpanalyze",
			Name:      "files_analyzed_total",
			Help:      "Number of source files that completed the analyze phase.",
		}),
		AnalysisErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "phpanalyze",
			Name:      "analysis_errors_total",
			Help:      "Number of hard AnalysisError failures encountered.",
		}),
	}
	reg.MustRegister(m.IssuesByCode, m.PhaseDuration, m.FilesAnalyzed, m.AnalysisErrors)
	return m
}

// ObservePhase records a phase's wall-clock duration in seconds.
func (m *Metrics) ObservePhase(phase string, seconds float64) {
	if m == nil {
		return
	}
	m.PhaseDuration.WithLabelValues(phase).Observe(seconds)
}

// ObserveIssue increments the issues_total counter for one emitted issue.
func (m *Metrics) ObserveIssue(code, level string) {
	if m == nil {
		return
	}
	m.IssuesByCode.WithLabelValues(code, level).Inc()
}

// ObserveFile counts one file completing the analyze phase.
func (m *Metrics) ObserveFile() {
	if m == nil {
		return
	}
	m.FilesAnalyzed.Inc()
}

// ObserveError counts one hard AnalysisError.
func (m *Metrics) ObserveError() {
	if m == nil {
		return
	}
	m.AnalysisErrors.Inc()
}
