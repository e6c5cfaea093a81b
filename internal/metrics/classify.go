package metrics

import "github.com/prometheus/client_golang/prometheus"

// Classification Prometheus metrics.
var (
	ClassifyRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidclass",
			Name:      "classify_requests_total",
			Help:      "Total number of classification requests",
		},
		[]string{"status"},
	)

	ClassifyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vidclass",
			Name:      "classify_duration_seconds",
			Help:      "Classification duration in seconds",
			Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
		},
	)

	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidclass",
			Name:      "predictions_total",
			Help:      "Predicted labels",
		},
		[]string{"label"},
	)

	PredictionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidclass",
			Name:      "prediction_cache_total",
			Help:      "Prediction cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	BundleLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidclass",
			Name:      "bundle_loads_total",
			Help:      "Parameter bundle load attempts",
		},
		[]string{"source", "status"},
	)

	BundleInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vidclass",
			Name:      "bundle_info",
			Help:      "Loaded parameter bundle, value is the vocabulary size",
		},
		[]string{"fingerprint", "classes"},
	)
)

var classifyMetricsRegistered bool

// RegisterClassifyMetrics registers Prometheus classification metrics. Must be called once from main.
func RegisterClassifyMetrics() {
	if classifyMetricsRegistered {
		return
	}
	prometheus.MustRegister(ClassifyRequestsTotal)
	prometheus.MustRegister(ClassifyDuration)
	prometheus.MustRegister(PredictionsTotal)
	prometheus.MustRegister(PredictionCacheTotal)
	prometheus.MustRegister(BundleLoadsTotal)
	prometheus.MustRegister(BundleInfo)
	classifyMetricsRegistered = true
}
