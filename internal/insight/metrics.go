package insight

import "github.com/prometheus/client_golang/prometheus"

var requestsTotal *prometheus.CounterVec

// InitMetrics registers the insight Prometheus collectors. Call once at
// startup; when skipped (as in tests), observations are no-ops.
func InitMetrics() {
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "etldash",
			Name:      "insight_requests_total",
			Help:      "Insight bundles produced, by source (gemini, raw, placeholder, error).",
		},
		[]string{"source"},
	)
	prometheus.MustRegister(requestsTotal)
}

func observeRequest(source string) {
	if requestsTotal == nil {
		return
	}
	requestsTotal.WithLabelValues(source).Inc()
}
