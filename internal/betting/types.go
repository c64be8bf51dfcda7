// Package betting turns overlay evaluations into bankroll-sized win bets.
package betting

import "github.com/yourusername/handicapper/internal/overlay"

// Pass reasons reported when no bet is recommended
const (
	PassReasonEmptyField      = "empty field: no active horses"
	PassReasonInvalidBankroll = "invalid bankroll: must be a positive amount"
	PassReasonNoValue         = "no value: no horse met the expected value and overlay thresholds"
)

// Pass codes are stable labels for the reasons above
const (
	PassCodeEmptyField      = "empty_field"
	PassCodeInvalidBankroll = "invalid_bankroll"
	PassCodeNoValue         = "no_value"
)

// Recommendation is a single sized win bet
type Recommendation struct {
	ProgramNumber       int                         `json:"program_number" yaml:"program_number"`
	HorseName           string                      `json:"horse_name" yaml:"horse_name"`
	DecimalOdds         float64                     `json:"decimal_odds" yaml:"decimal_odds"`
	ModelProbability    float64                     `json:"model_probability" yaml:"model_probability"`
	TrueOverlayPercent  float64                     `json:"true_overlay_percent" yaml:"true_overlay_percent"`
	ExpectedValue       float64                     `json:"expected_value" yaml:"expected_value"`
	KellyFraction       float64                     `json:"kelly_fraction" yaml:"kelly_fraction"`
	StakeAmount         float64                     `json:"stake_amount" yaml:"stake_amount"`
	StakePercent        float64                     `json:"stake_percent" yaml:"stake_percent"`
	ValueClassification overlay.ValueClassification `json:"value_classification" yaml:"value_classification"`
}

// RecommendationSet is the betting decision for one race
type RecommendationSet struct {
	Recommendations    []Recommendation `json:"recommendations" yaml:"recommendations"`
	FieldSize          int              `json:"field_size" yaml:"field_size"`
	CalibrationApplied bool             `json:"calibration_applied" yaml:"calibration_applied"`
	Bankroll           float64          `json:"bankroll" yaml:"bankroll"`
	TotalStake         float64          `json:"total_stake" yaml:"total_stake"`
	// TotalExposure is the summed stake percent of bankroll, never above 100.
	TotalExposure float64 `json:"total_exposure" yaml:"total_exposure"`
	PassSuggested bool    `json:"pass_suggested" yaml:"pass_suggested"`
	PassReason    string  `json:"pass_reason,omitempty" yaml:"pass_reason,omitempty"`
	PassCode      string  `json:"pass_code,omitempty" yaml:"pass_code,omitempty"`
}

func passSet(out overlay.Output, bankroll float64, code, reason string) RecommendationSet {
	return RecommendationSet{
		Recommendations:    []Recommendation{},
		FieldSize:          out.FieldMetrics.FieldSize,
		CalibrationApplied: out.CalibrationApplied,
		Bankroll:           bankroll,
		PassSuggested:      true,
		PassReason:         reason,
		PassCode:           code,
	}
}
