package overlay

import (
	"fmt"
	"math"

	"github.com/yourusername/handicapper/internal/config"
	"github.com/yourusername/handicapper/internal/odds"
	"github.com/yourusername/handicapper/internal/probability"
)

// Pipeline evaluates races against the market. It holds no mutable state and
// is safe for concurrent use as long as its calibrator is.
type Pipeline struct {
	converter *probability.Converter
	market    probability.MarketConfig
	bands     ValueBands
}

// NewPipeline creates a pipeline from its collaborators
func NewPipeline(converter *probability.Converter, market probability.MarketConfig, bands ValueBands) *Pipeline {
	if converter == nil {
		converter = probability.NewConverter(probability.DefaultSoftmaxConfig())
	}
	return &Pipeline{
		converter: converter,
		market:    market,
		bands:     bands,
	}
}

// NewDefaultPipeline creates an uncalibrated pipeline with default settings
func NewDefaultPipeline() *Pipeline {
	return NewPipeline(nil, probability.DefaultMarketConfig(), DefaultValueBands())
}

// FromConfig builds a pipeline from application config. The calibrator may be nil.
func FromConfig(cfg *config.Config, calibrator probability.Calibrator) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	sc, err := probability.SoftmaxFromConfig(&cfg.Softmax)
	if err != nil {
		return nil, fmt.Errorf("invalid softmax config: %w", err)
	}
	mc, err := probability.MarketFromConfig(&cfg.Market)
	if err != nil {
		return nil, fmt.Errorf("invalid market config: %w", err)
	}
	bands, err := ValueBandsFromConfig(&cfg.ValueBands)
	if err != nil {
		return nil, err
	}

	var opts []probability.ConverterOption
	if calibrator != nil {
		opts = append(opts, probability.WithCalibrator(calibrator))
	}
	return NewPipeline(probability.NewConverter(sc, opts...), mc, bands), nil
}

// Converter returns the pipeline's softmax converter
func (p *Pipeline) Converter() *probability.Converter {
	return p.converter
}

// Bands returns the pipeline's value bands
func (p *Pipeline) Bands() ValueBands {
	return p.bands
}

// Calculate runs the overlay evaluation for one race
func (p *Pipeline) Calculate(in Input) Output {
	n := len(in.Horses)
	if n == 0 {
		return Output{Horses: []HorseResult{}}
	}

	scores := make([]float64, n)
	for i, h := range in.Horses {
		scores[i] = h.SanitizedBaseScore()
	}
	dist := p.converter.ToProbabilities(scores)

	decimalOdds, implied, parsed := p.marketPrices(in)
	market := probability.NormalizeMarket(implied)
	overround := probability.Overround(implied)
	takeout, inRange := p.market.TakeoutPercent(overround)

	horses := make([]HorseResult, n)
	for i, h := range in.Horses {
		model := dist.Probabilities[i]
		overlay := OverlayPercent(model, market[i])
		horses[i] = HorseResult{
			ProgramNumber:               h.ProgramNumber,
			HorseName:                   h.HorseName,
			BaseScore:                   h.SanitizedBaseScore(),
			FinalScore:                  finite(h.FinalScore),
			ModelProbability:            model,
			NormalizedMarketProbability: market[i],
			TrueOverlayPercent:          overlay,
			ExpectedValue:               ExpectedValue(model, decimalOdds[i]),
			ValueClassification:         p.bands.Classify(overlay),
			DecimalOdds:                 decimalOdds[i],
			NaiveImpliedProbability:     implied[i],
			OddsParsed:                  parsed[i],
		}
	}

	return Output{
		Horses: horses,
		FieldMetrics: FieldMetrics{
			FieldSize:        n,
			Overround:        overround,
			TakeoutPercent:   takeout,
			OverroundInRange: inRange,
		},
		CalibrationApplied: dist.CalibrationApplied,
	}
}

// marketPrices parses each morning line. Unusable prices fall back to the
// probability floor so one bad line does not fail the race.
func (p *Pipeline) marketPrices(in Input) (decimalOdds, implied []float64, parsed []bool) {
	floor := p.converter.Config().MinProbability
	n := len(in.Horses)
	decimalOdds = make([]float64, n)
	implied = make([]float64, n)
	parsed = make([]bool, n)

	for i, h := range in.Horses {
		price, err := odds.ParseMorningLine(h.MorningLineOdds)
		if err == nil {
			if ip := probability.ImpliedProbability(price); ip > 0 {
				decimalOdds[i] = price
				implied[i] = ip
				parsed[i] = true
				continue
			}
		}
		decimalOdds[i] = 1 / floor
		implied[i] = floor
	}
	return decimalOdds, implied, parsed
}

// OverlayPercent returns (model - market) / market * 100, or 0 without a market price
func OverlayPercent(model, market float64) float64 {
	if market <= 0 {
		return 0
	}
	return finite((model - market) / market * 100)
}

// ExpectedValue returns the expected profit per unit staked at the given decimal odds
func ExpectedValue(model, decimalOdds float64) float64 {
	return finite(model*(decimalOdds-1) - (1 - model))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
