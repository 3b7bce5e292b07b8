// Package metrics provides Prometheus metrics for the m6A prediction
// service: prediction volume, failures, score distribution, latency, batch
// sizes, and model age. Metrics are exposed through the promhttp endpoint
// wired up by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	Predictions      prometheus.Counter   // Total samples scored
	Failures         prometheus.Counter   // Prediction calls that returned an error
	ValidationErrors prometheus.Counter   // Inputs rejected before the model was invoked
	PositiveCalls    prometheus.Counter   // Samples called Positive
	Latency          prometheus.Histogram // End-to-end prediction latency in seconds
	InferenceLatency prometheus.Histogram // Model backend inference latency in seconds
	Scores           prometheus.Histogram // Distribution of predicted probabilities
	BatchSize        prometheus.Histogram // Rows per batch prediction
	InferenceTimeout prometheus.Counter   // Model backend timeouts
	ModelAge         prometheus.Gauge     // Age of the loaded artifact in seconds
	StorageErrors    prometheus.Counter   // Failed prediction-record writes
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics against a custom registry, which keeps
// tests isolated from the global one.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_predictions_total",
			Help: "Total number of samples scored",
		}),
		Failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_prediction_failures_total",
			Help: "Total number of prediction calls that returned an error",
		}),
		ValidationErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_validation_errors_total",
			Help: "Total number of inputs rejected before model invocation",
		}),
		PositiveCalls: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_positive_calls_total",
			Help: "Total number of samples called Positive",
		}),
		Latency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "m6a_prediction_latency_seconds",
			Help:    "End-to-end prediction latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		InferenceLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "m6a_inference_latency_seconds",
			Help:    "Model backend inference latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		Scores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "m6a_prediction_scores",
			Help:    "Distribution of predicted m6A probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "m6a_batch_size_rows",
			Help:    "Rows per batch prediction",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		InferenceTimeout: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_inference_timeouts_total",
			Help: "Total number of model backend timeouts",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "m6a_model_age_seconds",
			Help: "Age of the loaded model artifact in seconds",
		}),
		StorageErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "m6a_storage_errors_total",
			Help: "Total number of failed prediction-record writes",
		}),
	}
}
