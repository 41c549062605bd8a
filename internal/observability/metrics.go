// Package observability provides Prometheus metrics for backtest runs.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Run metrics
	RunsTotal          *prometheus.CounterVec
	RunDuration        *prometheus.HistogramVec
	SnapshotsProcessed *prometheus.CounterVec
	SnapshotsSkipped   *prometheus.CounterVec
	TradesTotal        *prometheus.CounterVec
	RealizedPnL        *prometheus.GaugeVec
	FinalPosition      *prometheus.GaugeVec

	// Ingestion metrics
	SnapshotsIngested prometheus.Counter

	// Output metrics
	ReportsGenerated prometheus.Counter
	ArchiveUploads   *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered with reg.
// A nil reg registers with the Prometheus default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "zaphft"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by strategy and status",
		}, []string{"strategy", "status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "run_duration_seconds",
			Help:      "Replay duration of a single strategy pass in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"strategy"}),
		SnapshotsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "snapshots_processed_total",
			Help:      "Total number of snapshots delivered to strategies",
		}, []string{"strategy"}),
		SnapshotsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "snapshots_skipped_total",
			Help:      "Total number of invalid or out-of-order snapshots skipped",
		}, []string{"strategy"}),
		TradesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_total",
			Help:      "Total number of executed trades by side",
		}, []string{"strategy", "side"}),
		RealizedPnL: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "realized_pnl",
			Help:      "Realized PnL of the most recent run per strategy",
		}, []string{"strategy"}),
		FinalPosition: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "final_position",
			Help:      "Signed position at the end of the most recent run per strategy",
		}, []string{"strategy"}),

		SnapshotsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "snapshots_total",
			Help:      "Total number of snapshots written to the snapshot store",
		}),

		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "generated_total",
			Help:      "Total number of reports generated",
		}),
		ArchiveUploads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "uploads_total",
			Help:      "Total number of artifact uploads by status",
		}, []string{"status"}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful backtest run",
		}),
	}
}

// Handler returns an HTTP handler serving the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RunOutcome is what a finished (or failed) strategy pass reports.
type RunOutcome struct {
	Strategy  string
	Duration  time.Duration
	Processed int
	Skipped   int
	Buys      int
	Sells     int
	Realized  float64
	Position  float64
	Err       error
}

// RecordRun records a strategy pass.
func (m *Metrics) RecordRun(o RunOutcome) {
	if m == nil {
		return
	}

	status := "success"
	if o.Err != nil {
		status = "error"
	}
	m.RunsTotal.WithLabelValues(o.Strategy, status).Inc()
	m.RunDuration.WithLabelValues(o.Strategy).Observe(o.Duration.Seconds())
	m.SnapshotsProcessed.WithLabelValues(o.Strategy).Add(float64(o.Processed))
	m.SnapshotsSkipped.WithLabelValues(o.Strategy).Add(float64(o.Skipped))
	if o.Err != nil {
		return
	}

	m.TradesTotal.WithLabelValues(o.Strategy, "bid").Add(float64(o.Buys))
	m.TradesTotal.WithLabelValues(o.Strategy, "ask").Add(float64(o.Sells))
	m.RealizedPnL.WithLabelValues(o.Strategy).Set(o.Realized)
	m.FinalPosition.WithLabelValues(o.Strategy).Set(o.Position)
	m.LastSuccessfulRun.SetToCurrentTime()
}

// RecordIngest adds n snapshots to the ingestion counter.
func (m *Metrics) RecordIngest(n int) {
	if m == nil {
		return
	}
	m.SnapshotsIngested.Add(float64(n))
}

// RecordReport increments the reports counter.
func (m *Metrics) RecordReport() {
	if m == nil {
		return
	}
	m.ReportsGenerated.Inc()
}

// RecordArchiveUpload records one artifact upload attempt.
func (m *Metrics) RecordArchiveUpload(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ArchiveUploads.WithLabelValues(status).Inc()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(d.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
