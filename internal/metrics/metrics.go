// Package metrics provides Prometheus metrics for the m6A scoring
// service: prediction volume, classifier failures, latency, batch sizes,
// and the distribution of predicted probabilities.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the scoring service.
type Metrics struct {
	PredictionsTotal   prometheus.Counter   // Batches scored successfully
	PredictionFailures prometheus.Counter   // Classifier invocation failures
	PredictionTimeouts prometheus.Counter   // Sidecar inference timeouts
	SchemaRejections   prometheus.Counter   // Batches rejected for missing feature columns
	EncodeFailures     prometheus.Counter   // Sequence batches rejected for unequal lengths
	FallbackUse        prometheus.Counter   // Predictions served by the heuristic fallback
	PredictionLatency  prometheus.Histogram // End-to-end classifier latency in seconds
	BatchSize          prometheus.Histogram // Rows per scored batch
	PredictionScores   prometheus.Histogram // Distribution of positive-class probabilities
	PositiveCalls      prometheus.Counter   // Rows called Positive
	ModelAge           prometheus.Gauge     // Age of the model artifact in seconds
	StoredResults      prometheus.Counter   // Prediction results persisted to the store
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for
// testing, to keep test runs off the global registry).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_predictions_total",
			Help: "Total number of batches scored successfully",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_prediction_failures_total",
			Help: "Total number of classifier invocation failures",
		}),
		PredictionTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_prediction_timeouts_total",
			Help: "Total number of sidecar inference timeouts",
		}),
		SchemaRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_schema_rejections_total",
			Help: "Total number of batches rejected for missing feature columns",
		}),
		EncodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_encode_failures_total",
			Help: "Total number of sequence batches rejected for unequal lengths",
		}),
		FallbackUse: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_fallback_use_total",
			Help: "Total number of predictions served by the heuristic fallback",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "m6a_prediction_latency_seconds",
			Help:    "Classifier invocation latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "m6a_batch_size_rows",
			Help:    "Number of rows per scored batch",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "m6a_prediction_scores",
			Help:    "Distribution of predicted positive-class probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		PositiveCalls: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_positive_calls_total",
			Help: "Total number of rows called Positive",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "m6a_model_age_seconds",
			Help: "Age of the model artifact in seconds",
		}),
		StoredResults: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_stored_results_total",
			Help: "Total number of prediction results persisted",
		}),
	}
}
