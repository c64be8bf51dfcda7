package overlay

import (
	"fmt"
	"math"

	"github.com/yourusername/handicapper/internal/config"
)

// ValueClassification labels a horse by how far the model disagrees with the market
type ValueClassification string

const (
	ValueStrong   ValueClassification = "STRONG_VALUE"
	ValueModerate ValueClassification = "MODERATE_VALUE"
	ValueSlight   ValueClassification = "SLIGHT_VALUE"
	ValueNeutral  ValueClassification = "NEUTRAL"
	ValueUnderlay ValueClassification = "UNDERLAY"
)

// IsOverlay reports whether the classification marks a positive-value horse
func (v ValueClassification) IsOverlay() bool {
	switch v {
	case ValueStrong, ValueModerate, ValueSlight:
		return true
	default:
		return false
	}
}

// ValueBands holds the lower edges, in overlay percent, of each value class.
// An overlay below NeutralMin is an underlay.
type ValueBands struct {
	StrongMin   float64
	ModerateMin float64
	SlightMin   float64
	NeutralMin  float64
}

// DefaultValueBands returns the default band edges
func DefaultValueBands() ValueBands {
	return ValueBands{
		StrongMin:   50,
		ModerateMin: 25,
		SlightMin:   10,
		NeutralMin:  -10,
	}
}

// ValueBandsFromConfig converts app config to value bands
func ValueBandsFromConfig(cfg *config.ValueBandsConfig) (ValueBands, error) {
	if cfg == nil {
		return ValueBands{}, fmt.Errorf("value bands config is required")
	}
	b := ValueBands{
		StrongMin:   cfg.StrongMin,
		ModerateMin: cfg.ModerateMin,
		SlightMin:   cfg.SlightMin,
		NeutralMin:  cfg.NeutralMin,
	}
	return b, b.Validate()
}

// Validate requires finite, strictly decreasing band edges
func (b ValueBands) Validate() error {
	for _, edge := range []float64{b.StrongMin, b.ModerateMin, b.SlightMin, b.NeutralMin} {
		if math.IsNaN(edge) || math.IsInf(edge, 0) {
			return fmt.Errorf("%w: edges must be finite", ErrInvalidValueBands)
		}
	}
	if !(b.StrongMin > b.ModerateMin && b.ModerateMin > b.SlightMin && b.SlightMin > b.NeutralMin) {
		return fmt.Errorf("%w: edges must be strictly decreasing", ErrInvalidValueBands)
	}
	return nil
}

// Classify maps an overlay percent to exactly one value class. Edges are
// inclusive lower bounds; NaN is treated as an underlay.
func (b ValueBands) Classify(overlayPercent float64) ValueClassification {
	switch {
	case overlayPercent >= b.StrongMin:
		return ValueStrong
	case overlayPercent >= b.ModerateMin:
		return ValueModerate
	case overlayPercent >= b.SlightMin:
		return ValueSlight
	case overlayPercent >= b.NeutralMin:
		return ValueNeutral
	default:
		return ValueUnderlay
	}
}
