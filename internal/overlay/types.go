// Package overlay compares model win probabilities against normalized market
// probabilities and labels each horse by value.
package overlay

import (
	"errors"

	"github.com/yourusername/handicapper/internal/models"
)

// ErrInvalidValueBands is returned for band edges that cannot classify monotonically
var ErrInvalidValueBands = errors.New("invalid value bands")

// Input is a single race's horses in program order
type Input struct {
	Horses []models.HorseScoreInput `json:"horses" yaml:"horses"`
}

// FieldMetrics summarizes the market for one race
type FieldMetrics struct {
	FieldSize int `json:"field_size" yaml:"field_size"`
	// Overround is the naive implied-probability sum before normalization.
	Overround        float64 `json:"overround" yaml:"overround"`
	TakeoutPercent   float64 `json:"takeout_percent" yaml:"takeout_percent"`
	OverroundInRange bool    `json:"overround_in_range" yaml:"overround_in_range"`
}

// HorseResult is the overlay evaluation for one horse
type HorseResult struct {
	ProgramNumber               int                 `json:"program_number" yaml:"program_number"`
	HorseName                   string              `json:"horse_name" yaml:"horse_name"`
	BaseScore                   float64             `json:"base_score" yaml:"base_score"`
	FinalScore                  float64             `json:"final_score" yaml:"final_score"`
	ModelProbability            float64             `json:"model_probability" yaml:"model_probability"`
	NormalizedMarketProbability float64             `json:"normalized_market_probability" yaml:"normalized_market_probability"`
	TrueOverlayPercent          float64             `json:"true_overlay_percent" yaml:"true_overlay_percent"`
	ExpectedValue               float64             `json:"expected_value" yaml:"expected_value"`
	ValueClassification         ValueClassification `json:"value_classification" yaml:"value_classification"`
	DecimalOdds                 float64             `json:"decimal_odds" yaml:"decimal_odds"`
	NaiveImpliedProbability     float64             `json:"naive_implied_probability" yaml:"naive_implied_probability"`
	// OddsParsed is false when the morning line was unusable and a fallback price was substituted.
	OddsParsed bool `json:"odds_parsed" yaml:"odds_parsed"`
}

// Output is the overlay evaluation for a whole race, in input order
type Output struct {
	Horses             []HorseResult `json:"horses" yaml:"horses"`
	FieldMetrics       FieldMetrics  `json:"field_metrics" yaml:"field_metrics"`
	CalibrationApplied bool          `json:"calibration_applied" yaml:"calibration_applied"`
}

// IsEmpty reports whether the race had no horses
func (o Output) IsEmpty() bool {
	return len(o.Horses) == 0
}

// Overlays returns the horses classified as positive value, in input order
func (o Output) Overlays() []HorseResult {
	var out []HorseResult
	for _, h := range o.Horses {
		if h.ValueClassification.IsOverlay() {
			out = append(out, h)
		}
	}
	return out
}
