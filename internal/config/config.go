// Package config provides configuration management for the handicapper engine.
package config

import "fmt"

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Softmax     SoftmaxConfig     `mapstructure:"softmax" validate:"required"`
	Market      MarketConfig      `mapstructure:"market" validate:"required"`
	ValueBands  ValueBandsConfig  `mapstructure:"value_bands" validate:"required"`
	Betting     BettingConfig     `mapstructure:"betting" validate:"required"`
	Calibration CalibrationConfig `mapstructure:"calibration"`
	Server      ServerConfig      `mapstructure:"server"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// SoftmaxConfig controls how raw handicapping scores become win probabilities.
//
// Temperature sharpens (<1) or flattens (>1) the distribution. MinProbability
// and MaxProbability are the per-horse floor and ceiling. ScoreScale divides
// raw scores before exponentiation. ApplyCalibration enables the registered
// calibrator once it reports ready.
type SoftmaxConfig struct {
	Temperature      float64 `mapstructure:"temperature" validate:"required,gt=0"`
	MinProbability   float64 `mapstructure:"min_probability" validate:"required,gt=0,lt=1"`
	MaxProbability   float64 `mapstructure:"max_probability" validate:"required,gt=0,lte=1"`
	ScoreScale       float64 `mapstructure:"score_scale" validate:"required,gt=0"`
	ApplyCalibration bool    `mapstructure:"apply_calibration"`
}

// MarketConfig holds sanity bounds for odds-implied market probabilities.
//
// DefaultTakeout is reported when the observed overround falls outside
// [MinOverround, MaxOverround].
type MarketConfig struct {
	DefaultTakeout float64 `mapstructure:"default_takeout" validate:"gte=0,lt=1"`
	MinOverround   float64 `mapstructure:"min_overround" validate:"required,gt=0"`
	MaxOverround   float64 `mapstructure:"max_overround" validate:"required,gt=0"`
}

// ValueBandsConfig holds the lower edges (in overlay percent) of each value class.
// Anything below NeutralMin is an underlay.
type ValueBandsConfig struct {
	StrongMin   float64 `mapstructure:"strong_min"`
	ModerateMin float64 `mapstructure:"moderate_min"`
	SlightMin   float64 `mapstructure:"slight_min"`
	NeutralMin  float64 `mapstructure:"neutral_min"`
}

// BettingConfig represents recommendation filters and stake sizing
type BettingConfig struct {
	MinExpectedValue  float64 `mapstructure:"min_expected_value" validate:"gte=0"`
	MinOverlayPercent float64 `mapstructure:"min_overlay_percent"`
	KellyMultiplier   float64 `mapstructure:"kelly_multiplier" validate:"required,gt=0,lte=1"`
	KellyCap          float64 `mapstructure:"kelly_cap" validate:"required,gt=0,lte=1"`
	MaxTotalExposure  float64 `mapstructure:"max_total_exposure" validate:"required,gt=0,lte=1"`
}

// CalibrationConfig configures the optional Platt scaling calibrator
type CalibrationConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	SamplesPath     string `mapstructure:"samples_path"`
	ParamsPath      string `mapstructure:"params_path"`
	MinSamples      int    `mapstructure:"min_samples" validate:"gte=0"`
	RefreshSchedule string `mapstructure:"refresh_schedule"`
}

// ServerConfig represents the HTTP evaluation server configuration
type ServerConfig struct {
	Port              int     `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`
	CacheTTLSeconds   int     `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
	MaxConcurrency    int     `mapstructure:"max_concurrency" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Default returns a configuration populated with the engine defaults.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:        "handicapper",
			Environment: "development",
			LogLevel:    "info",
		},
		Softmax: SoftmaxConfig{
			Temperature:      1.0,
			MinProbability:   0.005,
			MaxProbability:   0.90,
			ScoreScale:       40,
			ApplyCalibration: true,
		},
		Market: MarketConfig{
			DefaultTakeout: 0.17,
			MinOverround:   1.0,
			MaxOverround:   1.6,
		},
		ValueBands: ValueBandsConfig{
			StrongMin:   50,
			ModerateMin: 25,
			SlightMin:   10,
			NeutralMin:  -10,
		},
		Betting: BettingConfig{
			MinExpectedValue:  0.05,
			MinOverlayPercent: 10,
			KellyMultiplier:   1.0,
			KellyCap:          0.10,
			MaxTotalExposure:  0.50,
		},
		Calibration: CalibrationConfig{
			MinSamples: 200,
		},
		Server: ServerConfig{
			Port:              8080,
			RequestsPerSecond: 20,
			Burst:             40,
			CacheTTLSeconds:   300,
			MaxConcurrency:    4,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// ListenAddress returns the HTTP listen address for the evaluation server
func (c *Config) ListenAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
