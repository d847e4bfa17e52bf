package etl

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	runsTotal   *prometheus.CounterVec
	rowsWritten *prometheus.CounterVec
	runDuration prometheus.Histogram
)

// InitMetrics registers the pipeline's Prometheus collectors. Call once
// at startup; when it is skipped (as in tests), observations are no-ops.
func InitMetrics() {
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "etldash",
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs by outcome.",
		},
		[]string{"status"},
	)
	rowsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "etldash",
			Name:      "pipeline_rows_written_total",
			Help:      "Rows written to the store per table, across all runs.",
		},
		[]string{"table"},
	)
	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "etldash",
			Name:      "pipeline_run_duration_seconds",
			Help:      "Histogram of full pipeline run durations in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)
	prometheus.MustRegister(runsTotal, rowsWritten, runDuration)
}

func observeRun(status string, d time.Duration) {
	if runsTotal == nil {
		return
	}
	runsTotal.WithLabelValues(status).Inc()
	runDuration.Observe(d.Seconds())
}

func observeRows(table string, n int) {
	if rowsWritten == nil {
		return
	}
	rowsWritten.WithLabelValues(table).Add(float64(n))
}
