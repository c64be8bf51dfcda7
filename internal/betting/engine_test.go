package betting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/handicapper/internal/config"
	"github.com/yourusername/handicapper/internal/models"
	"github.com/yourusername/handicapper/internal/overlay"
)

func horse(program int, p, odds, overlayPct float64) overlay.HorseResult {
	return overlay.HorseResult{
		ProgramNumber:       program,
		HorseName:           "Horse",
		ModelProbability:    p,
		DecimalOdds:         odds,
		TrueOverlayPercent:  overlayPct,
		ExpectedValue:       overlay.ExpectedValue(p, odds),
		ValueClassification: overlay.DefaultValueBands().Classify(overlayPct),
		OddsParsed:          true,
	}
}

func outputOf(horses ...overlay.HorseResult) overlay.Output {
	return overlay.Output{
		Horses:       horses,
		FieldMetrics: overlay.FieldMetrics{FieldSize: len(horses)},
	}
}

func eightHorseOutput() overlay.Output {
	scores := []float64{250, 220, 190, 160, 130, 100, 80, 60}
	lines := []string{"2-1", "3-1", "4-1", "5-1", "6-1", "8-1", "10-1", "12-1"}
	in := overlay.Input{}
	for i := range scores {
		in.Horses = append(in.Horses, models.HorseScoreInput{
			ProgramNumber:   i + 1,
			HorseName:       "Runner",
			BaseScore:       scores[i],
			MorningLineOdds: lines[i],
		})
	}
	return overlay.NewDefaultPipeline().Calculate(in)
}

func TestGenerateEmptyFieldPasses(t *testing.T) {
	out := overlay.NewDefaultPipeline().Calculate(overlay.Input{})
	set := NewEngine(DefaultSizing()).GenerateDefault(out, 500)

	assert.True(t, set.PassSuggested)
	assert.NotEmpty(t, set.PassReason)
	assert.Equal(t, PassCodeEmptyField, set.PassCode)
	assert.Empty(t, set.Recommendations)
	assert.NotNil(t, set.Recommendations)
	assert.Equal(t, 0, set.FieldSize)
	assert.Equal(t, 0.0, set.TotalExposure)
}

func TestGenerateInvalidBankrollPasses(t *testing.T) {
	out := outputOf(horse(1, 0.5, 3.0, 50))
	engine := NewEngine(DefaultSizing())

	for _, bankroll := range []float64{0, -100, math.NaN(), math.Inf(1)} {
		set := engine.GenerateDefault(out, bankroll)
		assert.True(t, set.PassSuggested)
		assert.Equal(t, PassCodeInvalidBankroll, set.PassCode)
		assert.Equal(t, 0.0, set.Bankroll)
	}
}

func TestGenerateEightHorseField(t *testing.T) {
	out := eightHorseOutput()
	set := NewEngine(DefaultSizing()).GenerateDefault(out, 500)

	assert.Equal(t, 8, set.FieldSize)
	assert.LessOrEqual(t, set.TotalExposure, 100.0)
	assert.Equal(t, 500.0, set.Bankroll)
	require.False(t, set.PassSuggested)
	require.NotEmpty(t, set.Recommendations)

	top := set.Recommendations[0]
	assert.Equal(t, 1, top.ProgramNumber)
	assert.InDelta(t, 0.10, top.KellyFraction, 1e-12)
	assert.Equal(t, 50.0, top.StakeAmount)
	assert.InDelta(t, 10.0, top.StakePercent, 1e-9)

	for _, r := range set.Recommendations {
		assert.GreaterOrEqual(t, r.ExpectedValue, 0.0)
	}
}

func TestGenerateAppliesFilters(t *testing.T) {
	out := outputOf(
		horse(1, 0.40, 3.0, 30),  // EV 0.20
		horse(2, 0.30, 3.0, 5),   // overlay below minimum
		horse(3, 0.20, 4.0, 40),  // EV -0.20 despite overlay
		horse(4, 0.26, 4.0, 15),  // EV 0.04 below minimum
		horse(5, 0.35, 4.0, 60),  // EV 0.40
	)
	set := NewEngine(DefaultSizing()).GenerateDefault(out, 1000)

	require.Len(t, set.Recommendations, 2)
	assert.Equal(t, 5, set.Recommendations[0].ProgramNumber)
	assert.Equal(t, 1, set.Recommendations[1].ProgramNumber)
}

func TestGenerateNegativeMinEVStillExcludesNegativeEV(t *testing.T) {
	out := outputOf(horse(1, 0.20, 4.0, 40))
	set := NewEngine(DefaultSizing()).Generate(out, 1000, Filters{MinEV: -1, MinOverlayPercent: -100})

	assert.True(t, set.PassSuggested)
	assert.Equal(t, PassCodeNoValue, set.PassCode)
}

func TestGenerateSkipsSubstitutedPrices(t *testing.T) {
	h := horse(1, 0.30, 200, 500)
	h.OddsParsed = false
	set := NewEngine(DefaultSizing()).GenerateDefault(outputOf(h), 1000)

	assert.True(t, set.PassSuggested)
}

func TestGenerateScalesToMaxExposure(t *testing.T) {
	out := outputOf(
		horse(1, 0.60, 3.0, 80),
		horse(2, 0.60, 3.0, 80),
		horse(3, 0.60, 3.0, 80),
	)
	sizing := Sizing{KellyMultiplier: 1, KellyCap: 0.30, MaxTotalExposure: 0.45}
	set := NewEngine(sizing).GenerateDefault(out, 1000)

	require.Len(t, set.Recommendations, 3)
	assert.InDelta(t, 45.0, set.TotalExposure, 1e-9)
	assert.InDelta(t, 450.0, set.TotalStake, 1e-9)
	for i, r := range set.Recommendations {
		assert.Equal(t, i+1, r.ProgramNumber, "ties break on program number")
		assert.InDelta(t, 0.15, r.KellyFraction, 1e-12)
		assert.Equal(t, 150.0, r.StakeAmount)
	}
}

func TestGenerateKellyMultiplier(t *testing.T) {
	out := outputOf(horse(1, 0.40, 3.0, 30))
	set := NewEngine(Sizing{KellyMultiplier: 0.25, KellyCap: 0.10, MaxTotalExposure: 0.5}).GenerateDefault(out, 1000)

	require.Len(t, set.Recommendations, 1)
	// full Kelly (2*0.4 - 0.6)/2 = 0.10
	assert.InDelta(t, 0.025, set.Recommendations[0].KellyFraction, 1e-12)
	assert.Equal(t, 25.0, set.Recommendations[0].StakeAmount)
}

func TestGenerateDropsStakesThatRoundToZero(t *testing.T) {
	out := outputOf(horse(1, 0.40, 3.0, 30))
	set := NewEngine(DefaultSizing()).GenerateDefault(out, 0.01)

	assert.True(t, set.PassSuggested)
	assert.Equal(t, PassCodeNoValue, set.PassCode)
}

func TestGenerateDeterministic(t *testing.T) {
	out := eightHorseOutput()
	engine := NewEngine(DefaultSizing())

	assert.Equal(t, engine.GenerateDefault(out, 500), engine.GenerateDefault(out, 500))
}

func TestKellyFraction(t *testing.T) {
	assert.InDelta(t, 0.10, KellyFraction(0.40, 3.0), 1e-12)
	assert.InDelta(t, -0.0666666, KellyFraction(0.20, 4.0), 1e-6)
	assert.Equal(t, 0.0, KellyFraction(0.5, 1.0))
	assert.Equal(t, 0.0, KellyFraction(0.5, math.NaN()))
}

func TestFromConfig(t *testing.T) {
	engine, err := FromConfig(&config.Default().Betting)
	require.NoError(t, err)
	assert.Equal(t, DefaultSizing(), engine.Sizing())
	assert.Equal(t, DefaultFilters(), engine.Filters())

	_, err = FromConfig(&config.BettingConfig{KellyMultiplier: 2, KellyCap: 0.1, MaxTotalExposure: 0.5})
	assert.Error(t, err)

	_, err = FromConfig(nil)
	assert.Error(t, err)
}

func TestNewEngineFallsBackToDefaultSizing(t *testing.T) {
	engine := NewEngine(Sizing{})
	assert.Equal(t, DefaultSizing(), engine.Sizing())

	set := engine.GenerateDefault(eightHorseOutput(), 500)
	assert.False(t, set.PassSuggested)
	require.NotEmpty(t, set.Recommendations)
	assert.InDelta(t, 0.10, set.Recommendations[0].KellyFraction, 1e-12)

	partial := NewEngine(Sizing{KellyMultiplier: 0.5, KellyCap: math.NaN(), MaxTotalExposure: 2})
	assert.Equal(t, Sizing{KellyMultiplier: 0.5, KellyCap: 0.10, MaxTotalExposure: 0.50}, partial.Sizing())
}
