package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// normalization pipelines.
type Metrics struct {
	RowsNormalized *prometheus.CounterVec // labels: pipeline={stats,forecast}
	FetchErrors    *prometheus.CounterVec // labels: source={estat,jma}
	EmptyResults   *prometheus.CounterVec // labels: pipeline={stats,forecast}
	SinkWrites     *prometheus.CounterVec // labels: sink={csv,sqlite,kafka}
	SinkErrors     *prometheus.CounterVec // labels: sink={csv,sqlite,kafka}

	CycleDuration prometheus.Histogram
	RunnerRunning prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsNormalized,
		m.FetchErrors,
		m.EmptyResults,
		m.SinkWrites,
		m.SinkErrors,
		m.CycleDuration,
		m.RunnerRunning,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsNormalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opendata_etl",
			Name:      "rows_normalized_total",
			Help:      "Total rows produced by each normalization pipeline.",
		}, []string{"pipeline"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opendata_etl",
			Name:      "fetch_errors_total",
			Help:      "Total failed document fetches by source.",
		}, []string{"source"}),
		EmptyResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opendata_etl",
			Name:      "empty_results_total",
			Help:      "Cycles in which a pipeline produced no rows at all.",
		}, []string{"pipeline"}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opendata_etl",
			Name:      "sink_writes_total",
			Help:      "Tables successfully handed to each sink.",
		}, []string{"sink"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opendata_etl",
			Name:      "sink_errors_total",
			Help:      "Failed sink writes.",
		}, []string{"sink"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "opendata_etl",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-write cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		RunnerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "opendata_etl",
			Name:      "runner_running",
			Help:      "1 when the ETL runner is active, 0 when shut down.",
		}),
	}
}
