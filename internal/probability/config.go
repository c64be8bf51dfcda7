// Package probability converts handicapping scores and odds into coherent
// win-probability distributions.
package probability

import (
	"fmt"

	"github.com/yourusername/handicapper/internal/config"
)

const (
	// MinTemperature is the floor applied to the softmax temperature.
	MinTemperature = 0.001
	// MaxBoundIterations caps the clamp-and-redistribute passes.
	MaxBoundIterations = 10
	// SumTolerance is the accepted drift of a distribution from 1.0.
	SumTolerance = 1e-3
)

// SoftmaxConfig controls score-to-probability conversion
type SoftmaxConfig struct {
	// Temperature sharpens (<1) or flattens (>1) the distribution.
	Temperature float64
	// MinProbability is the per-horse probability floor.
	MinProbability float64
	// MaxProbability is the per-horse probability ceiling.
	MaxProbability float64
	// ScoreScale divides raw scores before exponentiation.
	ScoreScale float64
	// ApplyCalibration passes bounded output through a ready calibrator.
	ApplyCalibration bool
}

// DefaultSoftmaxConfig returns the engine defaults
func DefaultSoftmaxConfig() SoftmaxConfig {
	return SoftmaxConfig{
		Temperature:      1.0,
		MinProbability:   0.005,
		MaxProbability:   0.90,
		ScoreScale:       40,
		ApplyCalibration: true,
	}
}

// SoftmaxFromConfig converts app config to a softmax config
func SoftmaxFromConfig(cfg *config.SoftmaxConfig) (SoftmaxConfig, error) {
	if cfg == nil {
		return SoftmaxConfig{}, fmt.Errorf("softmax config is required")
	}
	sc := SoftmaxConfig{
		Temperature:      cfg.Temperature,
		MinProbability:   cfg.MinProbability,
		MaxProbability:   cfg.MaxProbability,
		ScoreScale:       cfg.ScoreScale,
		ApplyCalibration: cfg.ApplyCalibration,
	}
	return sc, sc.Validate()
}

// Validate validates softmax parameters
func (c SoftmaxConfig) Validate() error {
	if c.ScoreScale <= 0 {
		return fmt.Errorf("score scale must be positive")
	}
	if c.MinProbability <= 0 || c.MinProbability >= 1 {
		return fmt.Errorf("min probability must be in (0, 1)")
	}
	if c.MaxProbability <= c.MinProbability || c.MaxProbability > 1 {
		return fmt.Errorf("max probability must be in (min probability, 1]")
	}
	return nil
}

// MarketConfig holds sanity bounds for the market overround
type MarketConfig struct {
	// DefaultTakeout is reported when the overround is implausible.
	DefaultTakeout float64
	// MinOverround and MaxOverround bound a plausible implied-probability sum.
	MinOverround float64
	MaxOverround float64
}

// DefaultMarketConfig returns the engine defaults
func DefaultMarketConfig() MarketConfig {
	return MarketConfig{
		DefaultTakeout: 0.17,
		MinOverround:   1.0,
		MaxOverround:   1.6,
	}
}

// MarketFromConfig converts app config to a market config
func MarketFromConfig(cfg *config.MarketConfig) (MarketConfig, error) {
	if cfg == nil {
		return MarketConfig{}, fmt.Errorf("market config is required")
	}
	mc := MarketConfig{
		DefaultTakeout: cfg.DefaultTakeout,
		MinOverround:   cfg.MinOverround,
		MaxOverround:   cfg.MaxOverround,
	}
	if mc.MinOverround >= mc.MaxOverround {
		return MarketConfig{}, fmt.Errorf("min overround must be below max overround")
	}
	return mc, nil
}
