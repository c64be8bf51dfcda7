package probability

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/yourusername/handicapper/internal/models"
)

// Calibrator post-processes a bounded probability field, e.g. Platt scaling
// fitted on historical outcomes. Implementations must be safe for
// concurrent use.
type Calibrator interface {
	IsReady() bool
	CalibrateField(probabilities []float64) []float64
}

// Distribution is a converted probability field in input order
type Distribution struct {
	Probabilities      []float64 `json:"probabilities"`
	CalibrationApplied bool      `json:"calibration_applied"`
}

// Converter turns raw scores into bounded win probabilities
type Converter struct {
	cfg        SoftmaxConfig
	calibrator Calibrator
}

// ConverterOption configures a Converter
type ConverterOption func(*Converter)

// WithCalibrator registers the calibrator consulted on every conversion
func WithCalibrator(c Calibrator) ConverterOption {
	return func(conv *Converter) {
		conv.calibrator = c
	}
}

// NewConverter creates a converter for the given config
func NewConverter(cfg SoftmaxConfig, opts ...ConverterOption) *Converter {
	c := &Converter{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the converter's softmax config
func (c *Converter) Config() SoftmaxConfig {
	return c.cfg
}

// ToProbabilities converts scores using the configured temperature and calibration flag
func (c *Converter) ToProbabilities(scores []float64) Distribution {
	return c.ToProbabilitiesWith(scores, c.cfg.Temperature, c.cfg.ApplyCalibration)
}

// ToProbabilitiesWith converts scores with an explicit temperature and calibration flag
func (c *Converter) ToProbabilitiesWith(scores []float64, temperature float64, applyCalibration bool) Distribution {
	probs := softmax(scores, temperature, c.cfg)
	if !applyCalibration || c.calibrator == nil || len(probs) < 2 || !c.calibrator.IsReady() {
		return Distribution{Probabilities: probs}
	}

	calibrated, ok := c.calibrate(probs)
	if !ok {
		return Distribution{Probabilities: probs}
	}
	return Distribution{Probabilities: calibrated, CalibrationApplied: true}
}

// calibrate runs the calibrator on a copy and rejects malformed output.
func (c *Converter) calibrate(probs []float64) ([]float64, bool) {
	in := make([]float64, len(probs))
	copy(in, probs)

	out := c.calibrator.CalibrateField(in)
	if len(out) != len(probs) {
		return nil, false
	}
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, false
		}
	}
	if floats.Sum(out) <= 0 {
		return nil, false
	}
	return EnforceBounds(out, c.cfg.MinProbability, c.cfg.MaxProbability), true
}

// Softmax converts scores to a bounded, uncalibrated probability distribution
func Softmax(scores []float64, cfg SoftmaxConfig) []float64 {
	return softmax(scores, cfg.Temperature, cfg)
}

func softmax(scores []float64, temperature float64, cfg SoftmaxConfig) []float64 {
	n := len(scores)
	switch n {
	case 0:
		return []float64{}
	case 1:
		return []float64{1.0}
	}

	values := make([]float64, n)
	for i, s := range scores {
		values[i] = models.SanitizeScore(s)
	}

	// Sanitized scores are non-negative, so a zero max means every score is zero.
	if floats.Max(values) == 0 {
		return EnforceBounds(Uniform(n), cfg.MinProbability, cfg.MaxProbability)
	}

	scale := cfg.ScoreScale
	if math.IsNaN(scale) || scale <= 0 {
		scale = 1
	}
	floats.Scale(1/scale, values)
	floats.AddConst(-floats.Max(values), values)

	t := effectiveTemperature(temperature)
	for i, v := range values {
		values[i] = math.Exp(v / t)
	}

	// The leader contributes exp(0) = 1, so the sum is at least 1.
	floats.Scale(1/floats.Sum(values), values)

	return EnforceBounds(values, cfg.MinProbability, cfg.MaxProbability)
}

func effectiveTemperature(t float64) float64 {
	if math.IsNaN(t) || t < MinTemperature {
		return MinTemperature
	}
	return t
}

// Uniform returns n equal probabilities
func Uniform(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = 1 / float64(n)
	}
	return out
}
