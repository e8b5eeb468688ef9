package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	global *Metrics
	once   sync.Once
)

// Metrics holds the Prometheus collectors for the prediction workflow.
//
//   - maternal_predictions_total{label}
//   - maternal_training_duration_seconds
//   - maternal_model_cache_total{result}     hit | miss
//   - maternal_records_saved_total{result}   ok | error
//   - maternal_holdout_accuracy
type Metrics struct {
	Predictions      *prometheus.CounterVec
	TrainingDuration prometheus.Histogram
	ModelCache       *prometheus.CounterVec
	RecordsSaved     *prometheus.CounterVec
	HoldoutAccuracy  prometheus.Gauge
}

// New returns the process-wide metrics, registering them on first use.
func New() *Metrics {
	once.Do(func() {
		global = &Metrics{
			Predictions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "maternal_predictions_total",
					Help: "Total number of risk predictions by predicted label",
				},
				[]string{"label"},
			),
			TrainingDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "maternal_training_duration_seconds",
					Help:    "Duration of classifier training in seconds",
					Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
				},
			),
			ModelCache: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "maternal_model_cache_total",
					Help: "Model cache lookups by result",
				},
				[]string{"result"},
			),
			RecordsSaved: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "maternal_records_saved_total",
					Help: "Prediction record writes by result",
				},
				[]string{"result"},
			),
			HoldoutAccuracy: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "maternal_holdout_accuracy",
					Help: "Accuracy of the most recently trained model on its held-out partition",
				},
			),
		}
	})
	return global
}
