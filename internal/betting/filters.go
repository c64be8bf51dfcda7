package betting

import (
	"fmt"
	"math"

	"github.com/yourusername/handicapper/internal/config"
	"github.com/yourusername/handicapper/internal/overlay"
)

// Filters decide which horses are worth a bet
type Filters struct {
	// MinEV is the minimum expected value per unit staked. Values below 0 are raised to 0.
	MinEV float64 `json:"min_ev" yaml:"min_ev"`
	// MinOverlayPercent is the minimum true overlay percent.
	MinOverlayPercent float64 `json:"min_overlay_percent" yaml:"min_overlay_percent"`
}

// DefaultFilters returns the default recommendation filters
func DefaultFilters() Filters {
	return Filters{
		MinEV:             0.05,
		MinOverlayPercent: 10,
	}
}

// FiltersFromConfig converts app config to filters
func FiltersFromConfig(cfg *config.BettingConfig) Filters {
	if cfg == nil {
		return DefaultFilters()
	}
	return Filters{
		MinEV:             cfg.MinExpectedValue,
		MinOverlayPercent: cfg.MinOverlayPercent,
	}
}

// Admits reports whether a horse passes the filters. A horse with a
// substituted price or negative expected value is never admitted.
func (f Filters) Admits(h overlay.HorseResult) bool {
	if !h.OddsParsed {
		return false
	}
	minEV := math.Max(f.MinEV, 0)
	if math.IsNaN(f.MinEV) {
		minEV = 0
	}
	return h.ExpectedValue >= minEV && h.TrueOverlayPercent >= f.MinOverlayPercent
}

// Validate rejects non-finite thresholds
func (f Filters) Validate() error {
	if math.IsNaN(f.MinEV) || math.IsInf(f.MinEV, 0) {
		return fmt.Errorf("min EV must be finite")
	}
	if math.IsNaN(f.MinOverlayPercent) || math.IsInf(f.MinOverlayPercent, 0) {
		return fmt.Errorf("min overlay percent must be finite")
	}
	return nil
}
