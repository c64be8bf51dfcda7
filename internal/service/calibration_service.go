package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/handicapper/internal/calibration"
	"github.com/yourusername/handicapper/internal/config"
	"github.com/yourusername/handicapper/internal/logger"
	"github.com/yourusername/handicapper/internal/metrics"
)

// RefitResult describes a completed calibration fit
type RefitResult struct {
	Params      calibration.Params      `json:"params" yaml:"params"`
	Diagnostics calibration.Diagnostics `json:"diagnostics" yaml:"diagnostics"`
	Saved       bool                    `json:"saved" yaml:"saved"`
}

// CalibrationService loads and refits the Platt calibrator
type CalibrationService struct {
	calibrator  *calibration.PlattCalibrator
	samplesPath string
	paramsPath  string
	logger      *logger.CalibrationLogger
	mu          sync.Mutex
	onRefit     []func()
}

// NewCalibrationService creates a calibration service for the configured paths
func NewCalibrationService(cal *calibration.PlattCalibrator, cfg config.CalibrationConfig, log *logrus.Logger) *CalibrationService {
	if log == nil {
		log = logrus.New()
	}
	return &CalibrationService{
		calibrator:  cal,
		samplesPath: cfg.SamplesPath,
		paramsPath:  cfg.ParamsPath,
		logger:      logger.NewCalibrationLogger(log),
	}
}

// Calibrator returns the managed calibrator
func (s *CalibrationService) Calibrator() *calibration.PlattCalibrator {
	return s.calibrator
}

// OnRefit registers a callback run after every successful refit
func (s *CalibrationService) OnRefit(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRefit = append(s.onRefit, fn)
}

// Initialize installs saved parameters, or fits from samples when none are saved
func (s *CalibrationService) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.calibrator.Load(s.paramsPath, s.samplesPath)
	if err != nil {
		metrics.UpdateCalibrationReady(false)
		s.logger.LogCalibrationError("initialize", err)
		return fmt.Errorf("failed to initialize calibration: %w", err)
	}

	metrics.UpdateCalibrationReady(s.calibrator.IsReady())
	s.logger.LogCalibrationLoaded(s.paramsPath, p.SampleCount, p.A, p.B)
	return nil
}

// Refit fits the calibrator from the samples file, saves the parameters when
// a params path is configured, and notifies OnRefit callbacks. The previous
// parameters stay in use if the fit fails.
func (s *CalibrationService) Refit(ctx context.Context) (*RefitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.samplesPath == "" {
		return nil, fmt.Errorf("%w: no samples path configured", calibration.ErrInsufficientSamples)
	}

	samples, err := calibration.LoadSamples(s.samplesPath)
	if err != nil {
		return nil, s.refitFailed(err)
	}
	p, err := s.calibrator.Fit(samples)
	if err != nil {
		return nil, s.refitFailed(err)
	}

	result := &RefitResult{
		Params:      p,
		Diagnostics: calibration.Diagnose(samples, p),
	}
	if s.paramsPath != "" {
		if err := calibration.SaveParams(s.paramsPath, p); err != nil {
			s.logger.LogCalibrationError(s.paramsPath, err)
		} else {
			result.Saved = true
		}
	}

	metrics.RecordCalibrationFit("success")
	metrics.UpdateCalibrationReady(s.calibrator.IsReady())
	s.logger.LogCalibrationFit(s.samplesPath, p.SampleCount, p.A, p.B,
		result.Diagnostics.BrierBefore, result.Diagnostics.BrierAfter)

	s.mu.Lock()
	callbacks := append([]func(){}, s.onRefit...)
	s.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}

	return result, nil
}

func (s *CalibrationService) refitFailed(err error) error {
	metrics.RecordCalibrationFit("failure")
	s.logger.LogCalibrationError(s.samplesPath, err)
	return fmt.Errorf("calibration refit failed: %w", err)
}
