package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LoadSamples reads a JSON array of samples and rejects any probability outside (0, 1)
func LoadSamples(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read samples file: %w", err)
	}

	var samples []Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse samples file: %w", err)
	}
	for i, s := range samples {
		if err := validateSample(s); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
	}
	return samples, nil
}

// LoadParams reads fitted parameters from a JSON file
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("failed to read params file: %w", err)
	}

	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return Params{}, fmt.Errorf("failed to parse params file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// SaveParams writes parameters as JSON, replacing the file atomically
func SaveParams(path string, p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".params-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp params file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write params: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write params: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace params file: %w", err)
	}
	return nil
}

// Load installs parameters from paramsPath when present, otherwise fits from
// samplesPath. Either path may be empty.
func (c *PlattCalibrator) Load(paramsPath, samplesPath string) (Params, error) {
	if paramsPath != "" {
		p, err := LoadParams(paramsPath)
		if err == nil {
			return p, c.SetParams(p)
		}
		if samplesPath == "" || !errors.Is(err, os.ErrNotExist) {
			return Params{}, err
		}
	}
	if samplesPath == "" {
		return Params{}, fmt.Errorf("%w: no params or samples path", ErrInsufficientSamples)
	}

	samples, err := LoadSamples(samplesPath)
	if err != nil {
		return Params{}, err
	}
	return c.Fit(samples)
}
