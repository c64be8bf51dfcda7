package logger

import (
	"github.com/sirupsen/logrus"
)

// PipelineLogger provides dedicated logging for race evaluations.
type PipelineLogger struct {
	*logrus.Entry
}

// NewPipelineLogger creates a new pipeline logger.
func NewPipelineLogger(baseLogger *logrus.Logger) *PipelineLogger {
	return &PipelineLogger{
		Entry: baseLogger.WithField("component", "pipeline"),
	}
}

// LogOverlayEvaluation logs a completed overlay evaluation.
func (pl *PipelineLogger) LogOverlayEvaluation(evaluationID, raceID string, fieldSize, overlays int, overround float64, calibrationApplied bool, durationMs float64) {
	pl.WithFields(logrus.Fields{
		"evaluation_id":          evaluationID,
		"race_id":                raceID,
		"field_size":             fieldSize,
		"overlays":               overlays,
		"overround":              overround,
		"calibration_applied":    calibrationApplied,
		"evaluation_duration_ms": durationMs,
	}).Info("Overlay evaluation completed")
}

// LogRecommendation logs a single sized bet.
func (pl *PipelineLogger) LogRecommendation(evaluationID string, programNumber int, horseName, classification string, expectedValue, overlayPercent, kellyFraction, stakeAmount float64) {
	pl.WithFields(logrus.Fields{
		"evaluation_id":   evaluationID,
		"program_number":  programNumber,
		"horse_name":      horseName,
		"classification":  classification,
		"expected_value":  expectedValue,
		"overlay_percent": overlayPercent,
		"kelly_fraction":  kellyFraction,
		"stake_amount":    stakeAmount,
	}).Info("Bet recommended")
}

// LogPass logs a race where no bet is recommended.
func (pl *PipelineLogger) LogPass(evaluationID, raceID, code, reason string) {
	pl.WithFields(logrus.Fields{
		"evaluation_id": evaluationID,
		"race_id":       raceID,
		"pass_code":     code,
		"pass_reason":   reason,
	}).Info("Pass suggested")
}

// LogCalibrationState logs whether the calibrator is in use.
func (pl *PipelineLogger) LogCalibrationState(ready bool, sampleCount int, a, b float64) {
	pl.WithFields(logrus.Fields{
		"calibration_ready": ready,
		"sample_count":      sampleCount,
		"platt_a":           a,
		"platt_b":           b,
	}).Debug("Calibration state")
}

// LogBatchCompleted logs a completed batch of race evaluations.
func (pl *PipelineLogger) LogBatchCompleted(races, recommended, passed, failed int, durationMs float64) {
	entry := pl.WithFields(logrus.Fields{
		"races":             races,
		"races_recommended": recommended,
		"races_passed":      passed,
		"races_failed":      failed,
		"batch_duration_ms": durationMs,
	})
	if failed > 0 {
		entry.Warn("Evaluation batch completed with failures")
		return
	}
	entry.Info("Evaluation batch completed")
}
