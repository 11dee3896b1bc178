// Package metrics defines the Prometheus collectors recorded during a run and
// writes them out in the textfile exposition format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for one process. A nil *Metrics
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	FilesProcessed       *prometheus.CounterVec
	ScansRead            prometheus.Counter
	ScanFailures         *prometheus.CounterVec
	MonotonicityFailures *prometheus.CounterVec
	ReportsRun           *prometheus.CounterVec
	ReportDuration       *prometheus.HistogramVec
	InclusionMatched     prometheus.Counter
	InclusionUnmatched   prometheus.Counter
}

// New creates all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FilesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rawinspect_files_processed_total",
				Help: "Run files processed by outcome (ok, fatal).",
			},
			[]string{"outcome"},
		),
		ScansRead: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rawinspect_scans_read_total",
				Help: "Scans loaded from a data store.",
			},
		),
		ScanFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rawinspect_scan_failures_total",
				Help: "Per-scan failures skipped during a report, by report.",
			},
			[]string{"report"},
		),
		MonotonicityFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rawinspect_monotonicity_failures_total",
				Help: "Mass ordering failures found by the scan analysis, by array kind.",
			},
			[]string{"array"},
		),
		ReportsRun: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rawinspect_reports_total",
				Help: "Report sections run, by report and status (ok, error).",
			},
			[]string{"report", "status"},
		),
		ReportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rawinspect_report_duration_seconds",
				Help:    "Report section run time in seconds.",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
			},
			[]string{"report"},
		),
		InclusionMatched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rawinspect_inclusion_matched_total",
				Help: "Inclusion or exclusion items assigned to a scan.",
			},
		),
		InclusionUnmatched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rawinspect_inclusion_unmatched_total",
				Help: "Inclusion or exclusion items left without a scan.",
			},
		),
	}

	m.registry.MustRegister(
		m.FilesProcessed,
		m.ScansRead,
		m.ScanFailures,
		m.MonotonicityFailures,
		m.ReportsRun,
		m.ReportDuration,
		m.InclusionMatched,
		m.InclusionUnmatched,
	)

	return m
}

// Registry returns the private registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveReport records one report section run.
func (m *Metrics) ObserveReport(report string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ReportsRun.WithLabelValues(report, status).Inc()
	m.ReportDuration.WithLabelValues(report).Observe(time.Since(start).Seconds())
}

// AddScanFailures adds n skipped scans for a report.
func (m *Metrics) AddScanFailures(report string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ScanFailures.WithLabelValues(report).Add(float64(n))
}

// AddScansRead adds n successfully loaded scans.
func (m *Metrics) AddScansRead(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ScansRead.Add(float64(n))
}

// AddMonotonicityFailures adds n ordering failures for an array kind
// ("profile" or "centroid").
func (m *Metrics) AddMonotonicityFailures(array string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.MonotonicityFailures.WithLabelValues(array).Add(float64(n))
}

// ObserveInclusion records the matched and unmatched item counts.
func (m *Metrics) ObserveInclusion(matched, unmatched int) {
	if m == nil {
		return
	}
	m.InclusionMatched.Add(float64(matched))
	m.InclusionUnmatched.Add(float64(unmatched))
}

// FileDone records the outcome of one run file.
func (m *Metrics) FileDone(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "fatal"
	}
	m.FilesProcessed.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes every collector to path in the text exposition
// format, for pickup by a node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
