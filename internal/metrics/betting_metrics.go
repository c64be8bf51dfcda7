package metrics

import "github.com/prometheus/client_golang/prometheus"

// Betting counter vectors
var (
	RecommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_total",
		Help:      "Total number of bet recommendations by value classification",
	}, []string{"classification"})

	PassesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "passes_total",
		Help:      "Total number of races passed by reason",
	}, []string{"reason"})
)

// Betting histograms
var (
	RecommendationExposurePercent = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recommendation_exposure_percent",
		Help:      "Total bankroll percent staked per recommended race",
		Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 40, 50, 75, 100},
	})
)

// RecordRecommendation records one recommended bet.
func RecordRecommendation(classification string) {
	RecommendationsTotal.WithLabelValues(classification).Inc()
}

// RecordExposure records the total exposure of a recommended race.
func RecordExposure(percent float64) {
	RecommendationExposurePercent.Observe(percent)
}

// RecordPass records a race with no recommended bet.
func RecordPass(reason string) {
	PassesTotal.WithLabelValues(reason).Inc()
}
