package metrics

import "github.com/prometheus/client_golang/prometheus"

// Calibration metrics
var (
	CalibrationFitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calibration_fits_total",
		Help:      "Total number of calibration fits by outcome",
	}, []string{"outcome"})

	CalibrationReady = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "calibration_ready",
		Help:      "1 when the calibrator has fitted parameters in use",
	})
)

// RecordCalibrationFit records a fit attempt. Outcome is "success" or "failure".
func RecordCalibrationFit(outcome string) {
	CalibrationFitsTotal.WithLabelValues(outcome).Inc()
}

// UpdateCalibrationReady sets the calibration readiness gauge.
func UpdateCalibrationReady(ready bool) {
	if ready {
		CalibrationReady.Set(1)
		return
	}
	CalibrationReady.Set(0)
}
