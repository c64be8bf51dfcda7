package calibration

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/optimize"
)

// syntheticSamples draws outcomes whose true win rate is sigmoid(a*logit(p)+b).
func syntheticSamples(n int, a, b float64, seed int64) []Sample {
	rng := rand.New(rand.NewSource(seed))
	samples := make([]Sample, n)
	for i := range samples {
		p := 0.02 + rng.Float64()*0.6
		truth := sigmoid(a*logit(p) + b)
		samples[i] = Sample{Probability: p, Won: rng.Float64() < truth}
	}
	return samples
}

func TestFitParamsRecoversCoefficients(t *testing.T) {
	samples := syntheticSamples(8000, 1.6, 0.4, 7)

	p, err := FitParams(samples)
	require.NoError(t, err)
	assert.InDelta(t, 1.6, p.A, 0.3)
	assert.InDelta(t, 0.4, p.B, 0.3)
	assert.Equal(t, len(samples), p.SampleCount)
	assert.False(t, p.FittedAt.IsZero())
	assert.Greater(t, p.LogLoss, 0.0)
}

func TestFitParamsRejectsBadInput(t *testing.T) {
	_, err := FitParams([]Sample{{Probability: 0.3, Won: true}})
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	_, err = FitParams([]Sample{{Probability: 0.3, Won: true}, {Probability: 0.5, Won: true}})
	assert.ErrorIs(t, err, ErrDegenerateSamples)

	_, err = FitParams([]Sample{{Probability: 0.3, Won: true}, {Probability: 1.2, Won: false}})
	assert.ErrorIs(t, err, ErrInvalidSample)
}

func TestPlattCalibratorReadiness(t *testing.T) {
	var nilCal *PlattCalibrator
	assert.False(t, nilCal.IsReady())

	c := NewPlattCalibrator(500)
	assert.False(t, c.IsReady())

	_, err := c.Fit(syntheticSamples(100, 1, 0, 1))
	assert.ErrorIs(t, err, ErrInsufficientSamples)
	assert.False(t, c.IsReady())

	_, err = c.Fit(syntheticSamples(1000, 1, 0, 1))
	require.NoError(t, err)
	assert.True(t, c.IsReady())

	c.Reset()
	assert.False(t, c.IsReady())
}

func TestSetParamsBelowMinSamplesNotReady(t *testing.T) {
	c := NewPlattCalibrator(200)
	require.NoError(t, c.SetParams(Params{A: 1, B: 0, SampleCount: 50}))
	assert.False(t, c.IsReady())

	require.NoError(t, c.SetParams(Params{A: 1, B: 0, SampleCount: 250}))
	assert.True(t, c.IsReady())
}

func TestSetParamsValidates(t *testing.T) {
	c := NewPlattCalibrator(0)
	assert.ErrorIs(t, c.SetParams(Params{A: -1}), ErrInvalidParams)
	assert.ErrorIs(t, c.SetParams(Params{A: math.NaN()}), ErrInvalidParams)
	_, ok := c.Params()
	assert.False(t, ok)
}

func TestCalibrateField(t *testing.T) {
	field := []float64{0.5, 0.3, 0.15, 0.05}
	original := append([]float64(nil), field...)

	c := NewPlattCalibrator(0)
	assert.Equal(t, field, c.CalibrateField(field), "unfitted calibrator is a no-op")

	require.NoError(t, c.SetParams(Params{A: 1, B: 0}))
	identity := c.CalibrateField(field)
	for i := range field {
		assert.InDelta(t, field[i], identity[i], 1e-9)
	}

	require.NoError(t, c.SetParams(Params{A: 1.5, B: -0.2}))
	out := c.CalibrateField(field)
	require.Len(t, out, len(field))

	total := 0.0
	for i, v := range out {
		total += v
		if i > 0 {
			assert.Less(t, v, out[i-1], "order must be kept")
		}
	}
	assert.InDelta(t, 1.0, total, 1e-9)
	assert.Greater(t, out[0], field[0], "a steeper slope sharpens the favorite")
	assert.Equal(t, original, field)
}

func TestCalibrateFieldConcurrent(t *testing.T) {
	c := NewPlattCalibrator(0)
	require.NoError(t, c.SetParams(Params{A: 1.2, B: 0.1}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if i == 0 && j%10 == 0 {
					_ = c.SetParams(Params{A: 1 + float64(j)/1000, B: 0})
				}
				out := c.CalibrateField([]float64{0.6, 0.4})
				assert.Len(t, out, 2)
				_ = c.IsReady()
			}
		}(i)
	}
	wg.Wait()
}

func TestMinimizeFallsBackWhenFirstMethodStopsEarly(t *testing.T) {
	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			return (w[0]-3)*(w[0]-3) + 10*(w[1]+2)*(w[1]+2)
		},
		Grad: func(grad, w []float64) {
			grad[0] = 2 * (w[0] - 3)
			grad[1] = 20 * (w[1] + 2)
		},
	}
	limited := fitAttempt{method: &optimize.BFGS{}, settings: &optimize.Settings{MajorIterations: 1}}

	_, err := minimize(problem, []float64{1, 0}, limited)
	assert.ErrorIs(t, err, ErrFitFailed)

	result, err := minimize(problem, []float64{1, 0}, limited, fitAttempt{method: &optimize.NelderMead{}})
	require.NoError(t, err)
	assert.True(t, convergedStatuses[result.Status], "status %v", result.Status)
	assert.InDelta(t, 3.0, result.X[0], 1e-2)
	assert.InDelta(t, -2.0, result.X[1], 1e-2)
}
