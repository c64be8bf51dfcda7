package calibration

import (
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// probabilityEpsilon keeps logit finite at the ends of (0, 1).
const probabilityEpsilon = 1e-6

// Sample is one settled runner: the probability the model gave it and whether it won
type Sample struct {
	Probability float64 `json:"probability"`
	Won         bool    `json:"won"`
}

// Params are fitted Platt coefficients: p' = sigmoid(A*logit(p) + B)
type Params struct {
	A           float64   `json:"a"`
	B           float64   `json:"b"`
	SampleCount int       `json:"sample_count"`
	LogLoss     float64   `json:"log_loss"`
	FittedAt    time.Time `json:"fitted_at"`
}

// Validate rejects parameters that would not preserve probability order
func (p Params) Validate() error {
	if math.IsNaN(p.A) || math.IsInf(p.A, 0) || math.IsNaN(p.B) || math.IsInf(p.B, 0) {
		return fmt.Errorf("%w: coefficients must be finite", ErrInvalidParams)
	}
	if p.A <= 0 {
		return fmt.Errorf("%w: slope must be positive, got %.4f", ErrInvalidParams, p.A)
	}
	if p.SampleCount < 0 {
		return fmt.Errorf("%w: negative sample count", ErrInvalidParams)
	}
	return nil
}

// Apply calibrates a single probability
func (p Params) Apply(prob float64) float64 {
	return sigmoid(p.A*logit(prob) + p.B)
}

// PlattCalibrator is a thread-safe Platt scaling calibrator. It reports ready
// once fitted on at least minSamples samples.
type PlattCalibrator struct {
	mu         sync.RWMutex
	params     *Params
	minSamples int
}

// NewPlattCalibrator creates an unfitted calibrator
func NewPlattCalibrator(minSamples int) *PlattCalibrator {
	if minSamples < 0 {
		minSamples = 0
	}
	return &PlattCalibrator{minSamples: minSamples}
}

// IsReady reports whether fitted parameters are available. Safe on a nil receiver.
func (c *PlattCalibrator) IsReady() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params != nil && c.params.SampleCount >= c.minSamples
}

// MinSamples returns the sample count required before the calibrator is ready
func (c *PlattCalibrator) MinSamples() int {
	return c.minSamples
}

// Params returns the current parameters, if any
func (c *PlattCalibrator) Params() (Params, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.params == nil {
		return Params{}, false
	}
	return *c.params, true
}

// SetParams installs previously fitted parameters
func (c *PlattCalibrator) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.params = &p
	c.mu.Unlock()
	return nil
}

// Reset discards fitted parameters
func (c *PlattCalibrator) Reset() {
	c.mu.Lock()
	c.params = nil
	c.mu.Unlock()
}

// Fit fits new parameters and installs them. The current parameters are kept on error.
func (c *PlattCalibrator) Fit(samples []Sample) (Params, error) {
	if len(samples) < c.minSamples {
		return Params{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientSamples, len(samples), c.minSamples)
	}
	p, err := FitParams(samples)
	if err != nil {
		return Params{}, err
	}
	if err := c.SetParams(p); err != nil {
		return Params{}, err
	}
	return p, nil
}

// CalibrateField applies Platt scaling to each probability and renormalizes
// the field to sum to 1. The input is not modified. Without parameters the
// field is returned unchanged.
func (c *PlattCalibrator) CalibrateField(probabilities []float64) []float64 {
	out := make([]float64, len(probabilities))
	copy(out, probabilities)

	p, ok := c.Params()
	if !ok || len(out) == 0 {
		return out
	}

	for i, v := range out {
		out[i] = p.Apply(v)
	}
	total := floats.Sum(out)
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		copy(out, probabilities)
		return out
	}
	floats.Scale(1/total, out)
	return out
}

// FitParams fits Platt coefficients by minimizing log-loss with BFGS,
// falling back to Nelder-Mead. Targets use Platt's prior correction so a
// separable sample set still yields finite coefficients.
func FitParams(samples []Sample) (Params, error) {
	if len(samples) < 2 {
		return Params{}, fmt.Errorf("%w: have %d, need at least 2", ErrInsufficientSamples, len(samples))
	}

	x := make([]float64, len(samples))
	y := make([]float64, len(samples))
	positives := 0
	for i, s := range samples {
		if err := validateSample(s); err != nil {
			return Params{}, fmt.Errorf("sample %d: %w", i, err)
		}
		x[i] = logit(s.Probability)
		if s.Won {
			positives++
		}
	}
	negatives := len(samples) - positives
	if positives == 0 || negatives == 0 {
		return Params{}, ErrDegenerateSamples
	}

	hi := (float64(positives) + 1) / (float64(positives) + 2)
	lo := 1 / (float64(negatives) + 2)
	for i, s := range samples {
		if s.Won {
			y[i] = hi
		} else {
			y[i] = lo
		}
	}

	n := float64(len(samples))
	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			loss := 0.0
			for i := range x {
				z := w[0]*x[i] + w[1]
				loss += softplus(z) - y[i]*z
			}
			return loss / n
		},
		Grad: func(grad, w []float64) {
			grad[0], grad[1] = 0, 0
			for i := range x {
				r := sigmoid(w[0]*x[i]+w[1]) - y[i]
				grad[0] += r * x[i]
				grad[1] += r
			}
			grad[0] /= n
			grad[1] /= n
		},
	}

	result, err := minimize(problem, []float64{1, 0},
		fitAttempt{method: &optimize.BFGS{}},
		fitAttempt{method: &optimize.NelderMead{}},
	)
	if err != nil {
		return Params{}, err
	}

	p := Params{
		A:           result.X[0],
		B:           result.X[1],
		SampleCount: len(samples),
		LogLoss:     LogLoss(samples, func(v float64) float64 { return sigmoid(result.X[0]*logit(v) + result.X[1]) }),
		FittedAt:    time.Now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

type fitAttempt struct {
	method   optimize.Method
	settings *optimize.Settings
}

var convergedStatuses = map[optimize.Status]bool{
	optimize.Success:             true,
	optimize.GradientThreshold:   true,
	optimize.FunctionConvergence: true,
	optimize.MethodConverge:      true,
}

// minimize runs each attempt in order and returns the first converged result.
// An attempt that errors or stops early (e.g. IterationLimit) moves on to the next.
func minimize(problem optimize.Problem, initial []float64, attempts ...fitAttempt) (*optimize.Result, error) {
	var lastErr error
	for _, a := range attempts {
		settings := a.settings
		if settings == nil {
			settings = &optimize.Settings{}
		}
		result, err := optimize.Minimize(problem, initial, settings, a.method)
		switch {
		case result != nil && convergedStatuses[result.Status]:
			return result, nil
		case err != nil:
			lastErr = err
		case result != nil:
			lastErr = fmt.Errorf("status=%v", result.Status)
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrFitFailed, lastErr)
}

func validateSample(s Sample) error {
	if math.IsNaN(s.Probability) || s.Probability <= 0 || s.Probability >= 1 {
		return fmt.Errorf("%w: probability %v not in (0, 1)", ErrInvalidSample, s.Probability)
	}
	return nil
}

func clampProbability(p float64) float64 {
	if math.IsNaN(p) {
		return probabilityEpsilon
	}
	return math.Min(math.Max(p, probabilityEpsilon), 1-probabilityEpsilon)
}

func logit(p float64) float64 {
	p = clampProbability(p)
	return math.Log(p / (1 - p))
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus computes log(1 + e^z) without overflow.
func softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}
