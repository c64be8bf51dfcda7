// Package config provides configuration management for the handicapper engine.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

var customValidations = map[string]validator.Func{
	"environment": validateEnvironment,
	"loglevel":    validateLogLevel,
}

// NewValidator creates a new validator with custom validation functions.
// It panics if a custom validation cannot be registered.
func NewValidator() *CustomValidator {
	v := validator.New()
	if err := registerValidations(v, customValidations); err != nil {
		panic(err)
	}
	return &CustomValidator{validator: v}
}

func registerValidations(v *validator.Validate, fns map[string]validator.Func) error {
	for tag, fn := range fns {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %q validation: %w", tag, err)
		}
	}
	return nil
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration is required")
	}
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Softmax.MinProbability >= cfg.Softmax.MaxProbability {
		return fmt.Errorf("softmax min_probability (%.4f) must be below max_probability (%.4f)",
			cfg.Softmax.MinProbability, cfg.Softmax.MaxProbability)
	}

	if cfg.Market.MinOverround >= cfg.Market.MaxOverround {
		return fmt.Errorf("market min_overround (%.3f) must be below max_overround (%.3f)",
			cfg.Market.MinOverround, cfg.Market.MaxOverround)
	}

	b := cfg.ValueBands
	if !(b.StrongMin > b.ModerateMin && b.ModerateMin > b.SlightMin && b.SlightMin > b.NeutralMin) {
		return fmt.Errorf("value_bands must be strictly decreasing: strong %.2f > moderate %.2f > slight %.2f > neutral %.2f",
			b.StrongMin, b.ModerateMin, b.SlightMin, b.NeutralMin)
	}

	if cfg.Betting.KellyCap > cfg.Betting.MaxTotalExposure {
		return fmt.Errorf("betting kelly_cap cannot exceed max_total_exposure")
	}

	if cfg.Calibration.Enabled && cfg.Calibration.SamplesPath == "" && cfg.Calibration.ParamsPath == "" {
		return fmt.Errorf("calibration requires samples_path or params_path when enabled")
	}

	if cfg.Calibration.RefreshSchedule != "" && cfg.Calibration.SamplesPath == "" {
		return fmt.Errorf("calibration refresh_schedule requires samples_path")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var sb strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		tag := fieldError.Tag()

		switch tag {
		case "required":
			sb.WriteString(fmt.Sprintf("- Field '%s' is required\n", field))
		case "min", "max":
			sb.WriteString(fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag))
		case "gt", "gte", "lt", "lte":
			sb.WriteString(fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag))
		case "environment":
			sb.WriteString(fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field))
		case "loglevel":
			sb.WriteString(fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field))
		default:
			sb.WriteString(fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag))
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", sb.String())
}
