package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/handicapper/internal/calibration"
	"github.com/yourusername/handicapper/internal/config"
	"github.com/yourusername/handicapper/internal/logger"
	"github.com/yourusername/handicapper/internal/probability"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	appLog     *logrus.Logger
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newCalibrateCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "handicap",
	Short: "Overlay detection and bet sizing for horse racing",
	Long: `Converts handicapping scores into win probabilities, compares them with
morning-line odds, and sizes win bets on overlays with fractional Kelly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		appLog = logger.New(cfg.App.LogLevel, cfg.App.Environment, os.Stderr)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "handicap %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	loaded, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if err := config.Validate(loaded); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// newCalibrator returns the configured calibrator, or nil when calibration is disabled.
func newCalibrator() *calibration.PlattCalibrator {
	if !cfg.Calibration.Enabled {
		return nil
	}
	return calibration.NewPlattCalibrator(cfg.Calibration.MinSamples)
}

// asCalibrator avoids handing a typed nil to the converter.
func asCalibrator(c *calibration.PlattCalibrator) probability.Calibrator {
	if c == nil {
		return nil
	}
	return c
}
