package calibration

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Diagnostics compares raw and calibrated probabilities on settled samples
type Diagnostics struct {
	Samples       int     `json:"samples"`
	BaseWinRate   float64 `json:"base_win_rate"`
	MeanPredicted float64 `json:"mean_predicted"`
	BrierBefore   float64 `json:"brier_before"`
	BrierAfter    float64 `json:"brier_after"`
	LogLossBefore float64 `json:"log_loss_before"`
	LogLossAfter  float64 `json:"log_loss_after"`
}

// Improved reports whether calibration lowered the Brier score
func (d Diagnostics) Improved() bool {
	return d.BrierAfter < d.BrierBefore
}

// Diagnose scores the samples before and after applying params
func Diagnose(samples []Sample, params Params) Diagnostics {
	if len(samples) == 0 {
		return Diagnostics{}
	}

	outcomes := make([]float64, len(samples))
	predicted := make([]float64, len(samples))
	for i, s := range samples {
		outcomes[i] = outcome(s)
		predicted[i] = clampProbability(s.Probability)
	}

	identity := func(p float64) float64 { return p }
	return Diagnostics{
		Samples:       len(samples),
		BaseWinRate:   stat.Mean(outcomes, nil),
		MeanPredicted: stat.Mean(predicted, nil),
		BrierBefore:   BrierScore(samples, identity),
		BrierAfter:    BrierScore(samples, params.Apply),
		LogLossBefore: LogLoss(samples, identity),
		LogLossAfter:  LogLoss(samples, params.Apply),
	}
}

// BrierScore returns the mean squared error of transformed probabilities
func BrierScore(samples []Sample, transform func(float64) float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	errs := make([]float64, len(samples))
	for i, s := range samples {
		d := clampProbability(transform(s.Probability)) - outcome(s)
		errs[i] = d * d
	}
	return stat.Mean(errs, nil)
}

// LogLoss returns the mean negative log-likelihood of transformed probabilities
func LogLoss(samples []Sample, transform func(float64) float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	losses := make([]float64, len(samples))
	for i, s := range samples {
		p := clampProbability(transform(s.Probability))
		if s.Won {
			losses[i] = -math.Log(p)
		} else {
			losses[i] = -math.Log(1 - p)
		}
	}
	return stat.Mean(losses, nil)
}

func outcome(s Sample) float64 {
	if s.Won {
		return 1
	}
	return 0
}
