package logger

import (
	"github.com/sirupsen/logrus"
)

// CalibrationLogger provides dedicated logging for calibration fits.
type CalibrationLogger struct {
	*logrus.Entry
}

// NewCalibrationLogger creates a new calibration logger.
func NewCalibrationLogger(baseLogger *logrus.Logger) *CalibrationLogger {
	return &CalibrationLogger{
		Entry: baseLogger.WithField("component", "calibration"),
	}
}

// LogCalibrationFit logs a successful Platt fit.
func (cl *CalibrationLogger) LogCalibrationFit(source string, samples int, a, b, brierBefore, brierAfter float64) {
	cl.WithFields(logrus.Fields{
		"source":       source,
		"samples":      samples,
		"platt_a":      a,
		"platt_b":      b,
		"brier_before": brierBefore,
		"brier_after":  brierAfter,
	}).Info("Calibration fitted")
}

// LogCalibrationLoaded logs parameters installed from disk.
func (cl *CalibrationLogger) LogCalibrationLoaded(path string, samples int, a, b float64) {
	cl.WithFields(logrus.Fields{
		"params_path": path,
		"samples":     samples,
		"platt_a":     a,
		"platt_b":     b,
	}).Info("Calibration parameters loaded")
}

// LogCalibrationError logs a failed fit or load.
func (cl *CalibrationLogger) LogCalibrationError(source string, err error) {
	cl.WithFields(logrus.Fields{
		"source": source,
		"error":  err.Error(),
	}).Error("Calibration failed")
}
