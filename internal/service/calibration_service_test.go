package service

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/handicapper/internal/calibration"
	"github.com/yourusername/handicapper/internal/config"
)

func writeSamples(t *testing.T, dir string, n int) string {
	t.Helper()
	rng := rand.New(rand.NewSource(5))
	samples := make([]calibration.Sample, n)
	for i := range samples {
		p := 0.05 + rng.Float64()*0.5
		samples[i] = calibration.Sample{Probability: p, Won: rng.Float64() < p*1.2}
	}
	data, err := json.Marshal(samples)
	require.NoError(t, err)

	path := filepath.Join(dir, "samples.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestCalibrationServiceRefit(t *testing.T) {
	dir := t.TempDir()
	cfg := config.CalibrationConfig{
		Enabled:     true,
		SamplesPath: writeSamples(t, dir, 400),
		ParamsPath:  filepath.Join(dir, "params.json"),
	}
	svc := NewCalibrationService(calibration.NewPlattCalibrator(200), cfg, quietLogger())

	refits := 0
	svc.OnRefit(func() { refits++ })

	result, err := svc.Refit(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Saved)
	assert.Equal(t, 400, result.Params.SampleCount)
	assert.Equal(t, 400, result.Diagnostics.Samples)
	assert.True(t, svc.Calibrator().IsReady())
	assert.Equal(t, 1, refits)

	saved, err := calibration.LoadParams(cfg.ParamsPath)
	require.NoError(t, err)
	assert.Equal(t, result.Params.A, saved.A)
}

func TestCalibrationServiceRefitKeepsParamsOnFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := config.CalibrationConfig{SamplesPath: writeSamples(t, dir, 300)}
	svc := NewCalibrationService(calibration.NewPlattCalibrator(200), cfg, quietLogger())

	_, err := svc.Refit(context.Background())
	require.NoError(t, err)
	before, _ := svc.Calibrator().Params()

	require.NoError(t, os.WriteFile(cfg.SamplesPath, []byte("not json"), 0o644))
	_, err = svc.Refit(context.Background())
	assert.Error(t, err)

	after, ok := svc.Calibrator().Params()
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestCalibrationServiceInitialize(t *testing.T) {
	dir := t.TempDir()
	paramsPath := filepath.Join(dir, "params.json")
	require.NoError(t, calibration.SaveParams(paramsPath, calibration.Params{A: 1.1, B: 0.1, SampleCount: 500}))

	svc := NewCalibrationService(calibration.NewPlattCalibrator(200), config.CalibrationConfig{ParamsPath: paramsPath}, quietLogger())
	require.NoError(t, svc.Initialize(context.Background()))
	assert.True(t, svc.Calibrator().IsReady())

	empty := NewCalibrationService(calibration.NewPlattCalibrator(200), config.CalibrationConfig{}, quietLogger())
	assert.Error(t, empty.Initialize(context.Background()))

	_, err := empty.Refit(context.Background())
	assert.ErrorIs(t, err, calibration.ErrInsufficientSamples)
}
