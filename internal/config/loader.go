// Package config provides configuration management for the handicapper engine.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "HANDICAPPER"

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration on top of Default(). A missing file is
// not an error; defaults and environment variables are used instead.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v, Default())

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults registers every default so AutomaticEnv can override keys
// that are absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("app.name", d.App.Name)
	v.SetDefault("app.environment", d.App.Environment)
	v.SetDefault("app.log_level", d.App.LogLevel)

	v.SetDefault("softmax.temperature", d.Softmax.Temperature)
	v.SetDefault("softmax.min_probability", d.Softmax.MinProbability)
	v.SetDefault("softmax.max_probability", d.Softmax.MaxProbability)
	v.SetDefault("softmax.score_scale", d.Softmax.ScoreScale)
	v.SetDefault("softmax.apply_calibration", d.Softmax.ApplyCalibration)

	v.SetDefault("market.default_takeout", d.Market.DefaultTakeout)
	v.SetDefault("market.min_overround", d.Market.MinOverround)
	v.SetDefault("market.max_overround", d.Market.MaxOverround)

	v.SetDefault("value_bands.strong_min", d.ValueBands.StrongMin)
	v.SetDefault("value_bands.moderate_min", d.ValueBands.ModerateMin)
	v.SetDefault("value_bands.slight_min", d.ValueBands.SlightMin)
	v.SetDefault("value_bands.neutral_min", d.ValueBands.NeutralMin)

	v.SetDefault("betting.min_expected_value", d.Betting.MinExpectedValue)
	v.SetDefault("betting.min_overlay_percent", d.Betting.MinOverlayPercent)
	v.SetDefault("betting.kelly_multiplier", d.Betting.KellyMultiplier)
	v.SetDefault("betting.kelly_cap", d.Betting.KellyCap)
	v.SetDefault("betting.max_total_exposure", d.Betting.MaxTotalExposure)

	v.SetDefault("calibration.enabled", d.Calibration.Enabled)
	v.SetDefault("calibration.samples_path", d.Calibration.SamplesPath)
	v.SetDefault("calibration.params_path", d.Calibration.ParamsPath)
	v.SetDefault("calibration.min_samples", d.Calibration.MinSamples)
	v.SetDefault("calibration.refresh_schedule", d.Calibration.RefreshSchedule)

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.requests_per_second", d.Server.RequestsPerSecond)
	v.SetDefault("server.burst", d.Server.Burst)
	v.SetDefault("server.cache_ttl_seconds", d.Server.CacheTTLSeconds)
	v.SetDefault("server.max_concurrency", d.Server.MaxConcurrency)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}
