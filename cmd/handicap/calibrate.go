package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/handicapper/internal/calibration"
	"github.com/yourusername/handicapper/internal/service"
)

func newCalibrateCmd() *cobra.Command {
	var samplesPath, paramsPath, output string

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Fit Platt calibration parameters from settled samples",
		Long: `Fits Platt scaling coefficients on a JSON array of settled runners
({"probability": 0.31, "won": true}) and writes them to the params file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			calCfg := cfg.Calibration
			if samplesPath != "" {
				calCfg.SamplesPath = samplesPath
			}
			if paramsPath != "" {
				calCfg.ParamsPath = paramsPath
			}
			if calCfg.SamplesPath == "" {
				return fmt.Errorf("a samples file is required (--samples or calibration.samples_path)")
			}

			svc := service.NewCalibrationService(calibration.NewPlattCalibrator(cfg.Calibration.MinSamples), calCfg, appLog)
			result, err := svc.Refit(context.Background())
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, result)
		},
	}

	cmd.Flags().StringVar(&samplesPath, "samples", "", "Samples file (overrides calibration.samples_path)")
	cmd.Flags().StringVar(&paramsPath, "params", "", "Params output file (overrides calibration.params_path)")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or yaml")

	return cmd
}
