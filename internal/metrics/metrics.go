// Package metrics provides centralized Prometheus metrics registry for the handicapper.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "handicapper"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PipelineEvaluationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_evaluations_total",
		Help:      "Total number of race overlay evaluations",
	})
	CalibrationAppliedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calibration_applied_total",
		Help:      "Total number of evaluations that used the calibrator",
	})
	EvaluationCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evaluation_cache_hits_total",
		Help:      "Total number of evaluations served from cache",
	})
	EvaluationCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evaluation_cache_misses_total",
		Help:      "Total number of evaluations computed on a cache miss",
	})
)

// Histogram metrics
var (
	PipelineEvaluationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_evaluation_duration_seconds",
		Help:      "Duration of a race evaluation in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})
	FieldOverround = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "field_overround",
		Help:      "Sum of naive morning-line implied probabilities per race",
		Buckets:   []float64{0.9, 1.0, 1.1, 1.2, 1.3, 1.4, 1.5, 1.6, 2.0},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register pipeline metrics
		registry.MustRegister(PipelineEvaluationsTotal)
		registry.MustRegister(CalibrationAppliedTotal)
		registry.MustRegister(EvaluationCacheHitsTotal)
		registry.MustRegister(EvaluationCacheMissesTotal)
		registry.MustRegister(PipelineEvaluationDuration)
		registry.MustRegister(FieldOverround)

		// Register betting metrics
		registry.MustRegister(RecommendationsTotal)
		registry.MustRegister(PassesTotal)
		registry.MustRegister(RecommendationExposurePercent)

		// Register calibration metrics
		registry.MustRegister(CalibrationFitsTotal)
		registry.MustRegister(CalibrationReady)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordEvaluation records a completed race evaluation.
func RecordEvaluation(durationSeconds, overround float64, calibrationApplied bool) {
	PipelineEvaluationsTotal.Inc()
	PipelineEvaluationDuration.Observe(durationSeconds)
	if overround > 0 {
		FieldOverround.Observe(overround)
	}
	if calibrationApplied {
		CalibrationAppliedTotal.Inc()
	}
}

// RecordCacheHit records an evaluation served from cache.
func RecordCacheHit() {
	EvaluationCacheHitsTotal.Inc()
}

// RecordCacheMiss records an evaluation computed on a cache miss.
func RecordCacheMiss() {
	EvaluationCacheMissesTotal.Inc()
}
