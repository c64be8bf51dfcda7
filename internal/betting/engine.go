package betting

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yourusername/handicapper/internal/config"
	"github.com/yourusername/handicapper/internal/overlay"
)

// Sizing controls how Kelly fractions become stakes
type Sizing struct {
	// KellyMultiplier scales full Kelly, e.g. 0.25 for quarter Kelly.
	KellyMultiplier float64
	// KellyCap is the largest bankroll fraction on any single horse.
	KellyCap float64
	// MaxTotalExposure is the largest bankroll fraction across the race.
	MaxTotalExposure float64
}

// DefaultSizing returns the default stake sizing
func DefaultSizing() Sizing {
	return Sizing{
		KellyMultiplier:  1.0,
		KellyCap:         0.10,
		MaxTotalExposure: 0.50,
	}
}

// Validate validates sizing parameters
func (s Sizing) Validate() error {
	if !(s.KellyMultiplier > 0 && s.KellyMultiplier <= 1) {
		return fmt.Errorf("kelly multiplier must be in (0, 1]")
	}
	if !(s.KellyCap > 0 && s.KellyCap <= 1) {
		return fmt.Errorf("kelly cap must be in (0, 1]")
	}
	if !(s.MaxTotalExposure > 0 && s.MaxTotalExposure <= 1) {
		return fmt.Errorf("max total exposure must be in (0, 1]")
	}
	return nil
}

// Engine generates bet recommendations. It is stateless and deterministic.
type Engine struct {
	sizing  Sizing
	filters Filters
}

// withDefaults replaces each out-of-range field with its DefaultSizing value
func (s Sizing) withDefaults() Sizing {
	d := DefaultSizing()
	if !(s.KellyMultiplier > 0 && s.KellyMultiplier <= 1) {
		s.KellyMultiplier = d.KellyMultiplier
	}
	if !(s.KellyCap > 0 && s.KellyCap <= 1) {
		s.KellyCap = d.KellyCap
	}
	if !(s.MaxTotalExposure > 0 && s.MaxTotalExposure <= 1) {
		s.MaxTotalExposure = d.MaxTotalExposure
	}
	return s
}

// NewEngine creates an engine that uses DefaultFilters for GenerateDefault.
// Sizing fields that fail Validate fall back to their DefaultSizing values;
// use FromConfig to reject them instead.
func NewEngine(sizing Sizing) *Engine {
	return &Engine{
		sizing:  sizing.withDefaults(),
		filters: DefaultFilters(),
	}
}

// FromConfig builds an engine whose sizing and default filters come from config
func FromConfig(cfg *config.BettingConfig) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("betting config is required")
	}
	s := Sizing{
		KellyMultiplier:  cfg.KellyMultiplier,
		KellyCap:         cfg.KellyCap,
		MaxTotalExposure: cfg.MaxTotalExposure,
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sizing: %w", err)
	}
	f := FiltersFromConfig(cfg)
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filters: %w", err)
	}
	return &Engine{sizing: s, filters: f}, nil
}

// Sizing returns the engine's stake sizing
func (e *Engine) Sizing() Sizing {
	return e.sizing
}

// Filters returns the filters used by GenerateDefault
func (e *Engine) Filters() Filters {
	return e.filters
}

// GenerateDefault runs Generate with the engine's configured filters
func (e *Engine) GenerateDefault(out overlay.Output, bankroll float64) RecommendationSet {
	return e.Generate(out, bankroll, e.filters)
}

// Generate sizes a win bet on every horse that passes the filters. It never
// fails: degenerate input produces a pass suggestion with a reason.
func (e *Engine) Generate(out overlay.Output, bankroll float64, filters Filters) RecommendationSet {
	validBankroll := !math.IsNaN(bankroll) && !math.IsInf(bankroll, 0) && bankroll > 0
	if out.IsEmpty() {
		if !validBankroll {
			bankroll = 0
		}
		return passSet(out, bankroll, PassCodeEmptyField, PassReasonEmptyField)
	}
	if !validBankroll {
		return passSet(out, 0, PassCodeInvalidBankroll, PassReasonInvalidBankroll)
	}

	kellyCap := e.sizing.KellyCap
	multiplier := e.sizing.KellyMultiplier

	recs := make([]Recommendation, 0, len(out.Horses))
	totalKelly := 0.0
	for _, h := range out.Horses {
		if !filters.Admits(h) {
			continue
		}
		kelly := clip(KellyFraction(h.ModelProbability, h.DecimalOdds)*multiplier, kellyCap)
		if kelly == 0 {
			continue
		}
		totalKelly += kelly
		recs = append(recs, Recommendation{
			ProgramNumber:       h.ProgramNumber,
			HorseName:           h.HorseName,
			DecimalOdds:         h.DecimalOdds,
			ModelProbability:    h.ModelProbability,
			TrueOverlayPercent:  h.TrueOverlayPercent,
			ExpectedValue:       h.ExpectedValue,
			KellyFraction:       kelly,
			ValueClassification: h.ValueClassification,
		})
	}

	maxExposure := e.sizing.MaxTotalExposure
	if totalKelly > maxExposure {
		scale := maxExposure / totalKelly
		for i := range recs {
			recs[i].KellyFraction *= scale
		}
	}

	return e.finalize(out, bankroll, recs)
}

// finalize converts fractions to stakes, drops bets that round to nothing,
// and orders the rest by expected value.
func (e *Engine) finalize(out overlay.Output, bankroll float64, recs []Recommendation) RecommendationSet {
	bank := decimal.NewFromFloat(bankroll)
	totalStake := decimal.Zero
	totalExposure := 0.0

	kept := recs[:0]
	for _, r := range recs {
		stake := bank.Mul(decimal.NewFromFloat(r.KellyFraction)).Round(2)
		if !stake.IsPositive() {
			continue
		}
		r.StakeAmount = stake.InexactFloat64()
		r.StakePercent = r.KellyFraction * 100
		totalStake = totalStake.Add(stake)
		totalExposure += r.StakePercent
		kept = append(kept, r)
	}

	if len(kept) == 0 {
		return passSet(out, bankroll, PassCodeNoValue, PassReasonNoValue)
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].ExpectedValue != kept[j].ExpectedValue {
			return kept[i].ExpectedValue > kept[j].ExpectedValue
		}
		return kept[i].ProgramNumber < kept[j].ProgramNumber
	})

	return RecommendationSet{
		Recommendations:    kept,
		FieldSize:          out.FieldMetrics.FieldSize,
		CalibrationApplied: out.CalibrationApplied,
		Bankroll:           bankroll,
		TotalStake:         totalStake.InexactFloat64(),
		TotalExposure:      math.Min(totalExposure, 100),
		PassSuggested:      false,
	}
}
