package models

import (
	"math"
	"strings"
)

// HorseScoreInput is one active horse as produced by the upstream scorer
type HorseScoreInput struct {
	ProgramNumber   int     `json:"program_number" yaml:"program_number" validate:"required,gt=0"`
	HorseName       string  `json:"horse_name" yaml:"horse_name" validate:"required"`
	BaseScore       float64 `json:"base_score" yaml:"base_score"`
	FinalScore      float64 `json:"final_score" yaml:"final_score"`
	MorningLineOdds string  `json:"morning_line_odds" yaml:"morning_line_odds"`
}

// SanitizedBaseScore returns the base score, or 0 when it is negative or not finite
func (h HorseScoreInput) SanitizedBaseScore() float64 {
	return SanitizeScore(h.BaseScore)
}

// DisplayName returns the trimmed horse name
func (h HorseScoreInput) DisplayName() string {
	return strings.TrimSpace(h.HorseName)
}

// SanitizeScore maps negative and non-finite scores to 0
func SanitizeScore(score float64) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return 0
	}
	return score
}
