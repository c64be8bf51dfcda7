package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yourusername/handicapper/internal/betting"
	"github.com/yourusername/handicapper/internal/models"
	"github.com/yourusername/handicapper/internal/service"
)

type evaluateOptions struct {
	bankroll   float64
	output     string
	minEV      float64
	minOverlay float64
}

func newEvaluateCmd() *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate [race-card files...]",
		Short: "Evaluate race cards and print bet recommendations",
		Long: `Reads one or more race cards (JSON or YAML, a single card or a list of
cards per file) and prints the overlay evaluation and bet recommendations
for each race.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, args, opts)
		},
	}

	cmd.Flags().Float64VarP(&opts.bankroll, "bankroll", "b", 1000, "Bankroll used for stake sizing")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "json", "Output format: json or yaml")
	cmd.Flags().Float64Var(&opts.minEV, "min-ev", 0, "Minimum expected value per unit staked (overrides config)")
	cmd.Flags().Float64Var(&opts.minOverlay, "min-overlay", 0, "Minimum true overlay percent (overrides config)")

	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string, opts *evaluateOptions) error {
	if opts.output != "json" && opts.output != "yaml" {
		return fmt.Errorf("unsupported output format %q", opts.output)
	}

	ctx := context.Background()
	cal := newCalibrator()
	if cal != nil {
		calSvc := service.NewCalibrationService(cal, cfg.Calibration, appLog)
		if err := calSvc.Initialize(ctx); err != nil {
			appLog.WithError(err).Warn("Continuing without calibration")
		}
	}

	evaluator, err := service.NewRaceEvaluatorFromConfig(cfg, asCalibrator(cal), appLog)
	if err != nil {
		return err
	}

	var filters *betting.Filters
	if cmd.Flags().Changed("min-ev") || cmd.Flags().Changed("min-overlay") {
		f := evaluator.DefaultFilters()
		if cmd.Flags().Changed("min-ev") {
			f.MinEV = opts.minEV
		}
		if cmd.Flags().Changed("min-overlay") {
			f.MinOverlayPercent = opts.minOverlay
		}
		filters = &f
	}

	var requests []service.EvaluationRequest
	for _, path := range args {
		races, err := readRaceCards(path)
		if err != nil {
			return err
		}
		for _, race := range races {
			requests = append(requests, service.EvaluationRequest{Race: race, Bankroll: opts.bankroll, Filters: filters})
		}
	}

	results, err := evaluator.EvaluateBatch(ctx, requests)
	if err != nil {
		return err
	}

	evaluations := make([]*service.Evaluation, 0, len(results))
	for i, r := range results {
		if r.Err != nil {
			return fmt.Errorf("race %s: %w", requests[i].Race.Label(), r.Err)
		}
		evaluations = append(evaluations, r.Evaluation)
	}

	return writeOutput(cmd.OutOrStdout(), opts.output, evaluations)
}

// readRaceCards decodes a file holding one race card or a list of them.
// Files ending in .yaml or .yml are YAML; everything else is JSON.
func readRaceCards(path string) ([]*models.RaceCard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read race card: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	isYAML := ext == ".yaml" || ext == ".yml"

	var many []*models.RaceCard
	if isYAML {
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			if err := node.Decode(&many); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
			return compact(many), nil
		}
		var one models.RaceCard
		if err := node.Decode(&one); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return []*models.RaceCard{&one}, nil
	}

	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(data, &many); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return compact(many), nil
	}
	var one models.RaceCard
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return []*models.RaceCard{&one}, nil
}

// compact drops null entries from a decoded list.
func compact(races []*models.RaceCard) []*models.RaceCard {
	out := races[:0]
	for _, r := range races {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func writeOutput(w io.Writer, format string, v interface{}) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
