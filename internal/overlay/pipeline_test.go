package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/handicapper/internal/config"
	"github.com/yourusername/handicapper/internal/models"
	"github.com/yourusername/handicapper/internal/probability"
)

type passthroughCalibrator struct {
	ready bool
	calls int
}

func (c *passthroughCalibrator) IsReady() bool { return c.ready }

func (c *passthroughCalibrator) CalibrateField(p []float64) []float64 {
	c.calls++
	return p
}

func eightHorseField() Input {
	scores := []float64{250, 220, 190, 160, 130, 100, 80, 60}
	lines := []string{"2-1", "3-1", "4-1", "5-1", "6-1", "8-1", "10-1", "12-1"}
	names := []string{"Aurora Gold", "Brisk Tempo", "Copper Mane", "Dusty Lane", "Eastern Sky", "Foxhaven", "Gallant Joe", "Harbor Mist"}

	horses := make([]models.HorseScoreInput, len(scores))
	for i := range scores {
		horses[i] = models.HorseScoreInput{
			ProgramNumber:   i + 1,
			HorseName:       names[i],
			BaseScore:       scores[i],
			FinalScore:      scores[i] + 5,
			MorningLineOdds: lines[i],
		}
	}
	return Input{Horses: horses}
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func TestCalculateEmptyField(t *testing.T) {
	out := NewDefaultPipeline().Calculate(Input{})

	assert.NotNil(t, out.Horses)
	assert.Empty(t, out.Horses)
	assert.True(t, out.IsEmpty())
	assert.Equal(t, 0, out.FieldMetrics.FieldSize)
	assert.False(t, out.CalibrationApplied)
}

func TestCalculateEightHorseField(t *testing.T) {
	in := eightHorseField()
	out := NewDefaultPipeline().Calculate(in)

	require.Len(t, out.Horses, len(in.Horses))
	assert.Equal(t, 8, out.FieldMetrics.FieldSize)

	model := make([]float64, len(out.Horses))
	market := make([]float64, len(out.Horses))
	for i, h := range out.Horses {
		assert.Equal(t, in.Horses[i].ProgramNumber, h.ProgramNumber, "input order must be kept")
		assert.Equal(t, in.Horses[i].HorseName, h.HorseName)
		assert.True(t, h.OddsParsed)
		model[i] = h.ModelProbability
		market[i] = h.NormalizedMarketProbability
	}
	assert.InDelta(t, 1.0, sum(model), probability.SumTolerance)
	assert.InDelta(t, 1.0, sum(market), 1e-9)

	for i := 1; i < len(model); i++ {
		assert.Less(t, model[i], model[i-1])
	}

	expectedOverround := 1.0/3 + 1.0/4 + 1.0/5 + 1.0/6 + 1.0/7 + 1.0/9 + 1.0/11 + 1.0/13
	assert.InDelta(t, expectedOverround, out.FieldMetrics.Overround, 1e-9)
	assert.True(t, out.FieldMetrics.OverroundInRange)
	assert.InDelta(t, (expectedOverround-1)*100, out.FieldMetrics.TakeoutPercent, 1e-9)
}

func TestCalculateDerivedFields(t *testing.T) {
	out := NewDefaultPipeline().Calculate(eightHorseField())
	bands := DefaultValueBands()

	for _, h := range out.Horses {
		wantOverlay := (h.ModelProbability - h.NormalizedMarketProbability) / h.NormalizedMarketProbability * 100
		wantEV := h.ModelProbability*(h.DecimalOdds-1) - (1 - h.ModelProbability)

		assert.InDelta(t, wantOverlay, h.TrueOverlayPercent, 1e-9)
		assert.InDelta(t, wantEV, h.ExpectedValue, 1e-9)
		assert.InDelta(t, 1/h.DecimalOdds, h.NaiveImpliedProbability, 1e-12)
		assert.Equal(t, bands.Classify(h.TrueOverlayPercent), h.ValueClassification)
	}

	assert.InDelta(t, 3.0, out.Horses[0].DecimalOdds, 1e-12)
	assert.InDelta(t, 13.0, out.Horses[7].DecimalOdds, 1e-12)
}

func TestCalculateUnparseableOddsFallback(t *testing.T) {
	in := Input{Horses: []models.HorseScoreInput{
		{ProgramNumber: 1, HorseName: "Clean Line", BaseScore: 200, MorningLineOdds: "5-2"},
		{ProgramNumber: 2, HorseName: "Bad Line", BaseScore: 180, MorningLineOdds: "5/2"},
		{ProgramNumber: 3, HorseName: "No Line", BaseScore: 150, MorningLineOdds: ""},
	}}
	out := NewDefaultPipeline().Calculate(in)

	require.Len(t, out.Horses, 3)
	assert.True(t, out.Horses[0].OddsParsed)
	for _, h := range out.Horses[1:] {
		assert.False(t, h.OddsParsed)
		assert.InDelta(t, 0.005, h.NaiveImpliedProbability, 1e-12)
		assert.InDelta(t, 200.0, h.DecimalOdds, 1e-9)
	}
	assert.InDelta(t, 1/3.5+0.01, out.FieldMetrics.Overround, 1e-9)
}

func TestCalculateImplausibleOverroundUsesDefaultTakeout(t *testing.T) {
	in := Input{Horses: []models.HorseScoreInput{
		{ProgramNumber: 1, HorseName: "Long Shot", BaseScore: 100, MorningLineOdds: "99-1"},
		{ProgramNumber: 2, HorseName: "Longer Shot", BaseScore: 90, MorningLineOdds: "99-1"},
	}}
	out := NewDefaultPipeline().Calculate(in)

	assert.InDelta(t, 0.02, out.FieldMetrics.Overround, 1e-9)
	assert.False(t, out.FieldMetrics.OverroundInRange)
	assert.InDelta(t, 17.0, out.FieldMetrics.TakeoutPercent, 1e-9)
}

func TestCalculateSanitizesScores(t *testing.T) {
	in := Input{Horses: []models.HorseScoreInput{
		{ProgramNumber: 1, HorseName: "Negative", BaseScore: -40, MorningLineOdds: "3-1"},
		{ProgramNumber: 2, HorseName: "Positive", BaseScore: 120, MorningLineOdds: "3-1"},
	}}
	out := NewDefaultPipeline().Calculate(in)

	assert.Equal(t, 0.0, out.Horses[0].BaseScore)
	assert.Less(t, out.Horses[0].ModelProbability, out.Horses[1].ModelProbability)
}

func TestCalculateDeterministicAndPure(t *testing.T) {
	in := eightHorseField()
	snapshot := make([]models.HorseScoreInput, len(in.Horses))
	copy(snapshot, in.Horses)

	p := NewDefaultPipeline()
	first := p.Calculate(in)
	second := p.Calculate(in)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, in.Horses)
}

func TestCalculateCalibrationApplied(t *testing.T) {
	cal := &passthroughCalibrator{ready: true}
	conv := probability.NewConverter(probability.DefaultSoftmaxConfig(), probability.WithCalibrator(cal))
	p := NewPipeline(conv, probability.DefaultMarketConfig(), DefaultValueBands())

	out := p.Calculate(eightHorseField())
	assert.True(t, out.CalibrationApplied)
	assert.Equal(t, 1, cal.calls)

	cal.ready = false
	out = p.Calculate(eightHorseField())
	assert.False(t, out.CalibrationApplied)
}

func TestFromConfig(t *testing.T) {
	p, err := FromConfig(config.Default(), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultValueBands(), p.Bands())
	assert.Equal(t, probability.DefaultSoftmaxConfig(), p.Converter().Config())

	cfg := config.Default()
	cfg.ValueBands.SlightMin = 60
	_, err = FromConfig(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidValueBands)

	_, err = FromConfig(nil, nil)
	assert.Error(t, err)
}

func TestOverlayPercentWithoutMarket(t *testing.T) {
	assert.Equal(t, 0.0, OverlayPercent(0.3, 0))
	assert.InDelta(t, 50.0, OverlayPercent(0.3, 0.2), 1e-9)
}
