// Package service runs race evaluations end to end: validation, overlay
// pipeline, bet sizing, caching, logging and metrics.
package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/handicapper/internal/betting"
	"github.com/yourusername/handicapper/internal/config"
	"github.com/yourusername/handicapper/internal/logger"
	"github.com/yourusername/handicapper/internal/metrics"
	"github.com/yourusername/handicapper/internal/models"
	"github.com/yourusername/handicapper/internal/overlay"
	"github.com/yourusername/handicapper/internal/probability"
)

const defaultCacheSize = 10000

// Evaluation is the complete result for one race
type Evaluation struct {
	EvaluationID    uuid.UUID                 `json:"evaluation_id" yaml:"evaluation_id"`
	Race            string                    `json:"race" yaml:"race"`
	Overlay         overlay.Output            `json:"overlay" yaml:"overlay"`
	Recommendations betting.RecommendationSet `json:"recommendations" yaml:"recommendations"`
	Cached          bool                      `json:"cached" yaml:"cached"`
}

// clone returns a copy that shares no slices with e
func (e *Evaluation) clone() *Evaluation {
	c := *e
	c.Overlay.Horses = slices.Clone(e.Overlay.Horses)
	c.Recommendations.Recommendations = slices.Clone(e.Recommendations.Recommendations)
	return &c
}

// EvaluationRequest is one race in a batch. A nil Filters uses the evaluator's defaults.
type EvaluationRequest struct {
	Race     *models.RaceCard `json:"race" yaml:"race"`
	Bankroll float64          `json:"bankroll" yaml:"bankroll"`
	Filters  *betting.Filters `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// BatchResult pairs a batch request with its evaluation or error
type BatchResult struct {
	Evaluation *Evaluation
	Err        error
}

// EvaluatorConfig holds service-level settings
type EvaluatorConfig struct {
	// CacheTTL is how long evaluations are memoized. Zero disables caching.
	CacheTTL time.Duration
	// MaxConcurrency bounds parallel evaluations in a batch.
	MaxConcurrency int
}

// RaceEvaluator evaluates race cards. Safe for concurrent use.
type RaceEvaluator struct {
	pipeline       *overlay.Pipeline
	engine         *betting.Engine
	cache          *EvaluationCache
	maxConcurrency int
	logger         *logrus.Logger
	pipelineLogger *logger.PipelineLogger
}

// NewRaceEvaluator creates a new race evaluator
func NewRaceEvaluator(pipeline *overlay.Pipeline, engine *betting.Engine, cfg EvaluatorConfig, log *logrus.Logger) *RaceEvaluator {
	if log == nil {
		log = logrus.New()
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}

	var c *EvaluationCache
	if cfg.CacheTTL > 0 {
		c = NewEvaluationCache(cfg.CacheTTL, defaultCacheSize)
	}

	return &RaceEvaluator{
		pipeline:       pipeline,
		engine:         engine,
		cache:          c,
		maxConcurrency: cfg.MaxConcurrency,
		logger:         log,
		pipelineLogger: logger.NewPipelineLogger(log),
	}
}

// NewRaceEvaluatorFromConfig wires the pipeline and engine from application config.
// The calibrator may be nil.
func NewRaceEvaluatorFromConfig(cfg *config.Config, calibrator probability.Calibrator, log *logrus.Logger) (*RaceEvaluator, error) {
	pipeline, err := overlay.FromConfig(cfg, calibrator)
	if err != nil {
		return nil, fmt.Errorf("failed to build overlay pipeline: %w", err)
	}
	engine, err := betting.FromConfig(&cfg.Betting)
	if err != nil {
		return nil, fmt.Errorf("failed to build betting engine: %w", err)
	}

	return NewRaceEvaluator(pipeline, engine, EvaluatorConfig{
		CacheTTL:       time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
		MaxConcurrency: cfg.Server.MaxConcurrency,
	}, log), nil
}

// DefaultFilters returns the filters used when a request does not set any
func (e *RaceEvaluator) DefaultFilters() betting.Filters {
	return e.engine.Filters()
}

// Evaluate validates a race card and produces overlay results and bet recommendations
func (e *RaceEvaluator) Evaluate(ctx context.Context, race *models.RaceCard, bankroll float64, filters *betting.Filters) (*Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := models.ValidateRaceCard(race); err != nil {
		return nil, err
	}

	f := e.engine.Filters()
	if filters != nil {
		if err := filters.Validate(); err != nil {
			return nil, fmt.Errorf("invalid filters: %w", err)
		}
		f = *filters
	}

	id := Fingerprint(race, bankroll, f)
	var gen uint64
	if e.cache != nil {
		if cached, ok := e.cache.Get(id); ok {
			cached.Cached = true
			return cached, nil
		}
		gen = e.cache.Generation()
	}

	start := time.Now()
	out := e.pipeline.Calculate(overlay.Input{Horses: race.Horses})
	set := e.engine.Generate(out, bankroll, f)
	elapsed := time.Since(start)

	eval := &Evaluation{
		EvaluationID:    id,
		Race:            race.Label(),
		Overlay:         out,
		Recommendations: set,
	}
	e.record(eval, elapsed)

	if e.cache != nil && !e.cache.SetAt(id, eval, gen) {
		e.logger.WithField("race", eval.Race).Debug("Evaluation not cached")
	}
	return eval, nil
}

// EvaluateBatch evaluates races in parallel. A failing race is reported in
// its BatchResult and does not stop the others; only context cancellation
// fails the whole batch. Results are in request order.
func (e *RaceEvaluator) EvaluateBatch(ctx context.Context, requests []EvaluationRequest) ([]BatchResult, error) {
	start := time.Now()
	results := make([]BatchResult, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)

	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			eval, err := e.Evaluate(gctx, req.Race, req.Bankroll, req.Filters)
			results[i] = BatchResult{Evaluation: eval, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch evaluation cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch evaluation cancelled: %w", err)
	}

	var recommended, passed, failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case r.Evaluation.Recommendations.PassSuggested:
			passed++
		default:
			recommended++
		}
	}
	e.pipelineLogger.LogBatchCompleted(len(requests), recommended, passed, failed, float64(time.Since(start).Microseconds())/1000)

	return results, nil
}

// InvalidateCache drops memoized evaluations, e.g. after the calibrator is refitted
func (e *RaceEvaluator) InvalidateCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}

// Stats returns evaluation cache statistics
func (e *RaceEvaluator) Stats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}

func (e *RaceEvaluator) record(eval *Evaluation, elapsed time.Duration) {
	out := eval.Overlay
	set := eval.Recommendations
	id := eval.EvaluationID.String()

	metrics.RecordEvaluation(elapsed.Seconds(), out.FieldMetrics.Overround, out.CalibrationApplied)
	e.pipelineLogger.LogOverlayEvaluation(id, eval.Race, out.FieldMetrics.FieldSize, len(out.Overlays()),
		out.FieldMetrics.Overround, out.CalibrationApplied, float64(elapsed.Microseconds())/1000)

	if !out.FieldMetrics.OverroundInRange && out.FieldMetrics.FieldSize > 0 {
		e.logger.WithFields(logrus.Fields{
			"race":      eval.Race,
			"overround": out.FieldMetrics.Overround,
		}).Warn("Overround outside plausible range, using default takeout")
	}

	if set.PassSuggested {
		metrics.RecordPass(set.PassCode)
		e.pipelineLogger.LogPass(id, eval.Race, set.PassCode, set.PassReason)
		return
	}

	metrics.RecordExposure(set.TotalExposure)
	for _, r := range set.Recommendations {
		metrics.RecordRecommendation(string(r.ValueClassification))
		e.pipelineLogger.LogRecommendation(id, r.ProgramNumber, r.HorseName, string(r.ValueClassification),
			r.ExpectedValue, r.TrueOverlayPercent, r.KellyFraction, r.StakeAmount)
	}
}
