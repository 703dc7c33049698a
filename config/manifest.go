package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SweepSpec describes a Cartesian-product parameter grid, one independent
// run per cell, per spec.md §6's Sweep driver surface.
type SweepSpec struct {
	Base       string              `yaml:"base"`
	ScenarioID []string            `yaml:"scenario_id"`
	Seeds      []uint64            `yaml:"seeds"`
	Grid       map[string][]float64 `yaml:"grid"`
}

// MonteCarloSpec describes N seeds crossed with a scenario set, per
// spec.md §6's Monte Carlo driver surface.
type MonteCarloSpec struct {
	Base       string   `yaml:"base"`
	ScenarioID []string `yaml:"scenario_id"`
	NumSeeds   uint64   `yaml:"num_seeds"`
	SeedOffset uint64   `yaml:"seed_offset"`
}

// LoadSweepSpec reads a YAML sweep manifest from path.
func LoadSweepSpec(path string) (SweepSpec, error) {
	var spec SweepSpec
	if path == "" {
		return spec, fmt.Errorf("sweep manifest path required")
	}
	file, err := os.Open(path)
	if err != nil {
		return spec, fmt.Errorf("open sweep manifest: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(&spec); err != nil {
		return SweepSpec{}, fmt.Errorf("decode sweep manifest: %w", err)
	}
	if err := spec.validate(); err != nil {
		return SweepSpec{}, err
	}
	return spec, nil
}

func (s SweepSpec) validate() error {
	if len(s.ScenarioID) == 0 {
		return fmt.Errorf("sweep manifest: at least one scenario_id required")
	}
	if len(s.Seeds) == 0 {
		return fmt.Errorf("sweep manifest: at least one seed required")
	}
	return nil
}

// LoadMonteCarloSpec reads a YAML Monte Carlo manifest from path.
func LoadMonteCarloSpec(path string) (MonteCarloSpec, error) {
	var spec MonteCarloSpec
	if path == "" {
		return spec, fmt.Errorf("montecarlo manifest path required")
	}
	file, err := os.Open(path)
	if err != nil {
		return spec, fmt.Errorf("open montecarlo manifest: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(&spec); err != nil {
		return MonteCarloSpec{}, fmt.Errorf("decode montecarlo manifest: %w", err)
	}
	if err := spec.validate(); err != nil {
		return MonteCarloSpec{}, err
	}
	return spec, nil
}

func (s MonteCarloSpec) validate() error {
	if len(s.ScenarioID) == 0 {
		return fmt.Errorf("montecarlo manifest: at least one scenario_id required")
	}
	if s.NumSeeds == 0 {
		return fmt.Errorf("montecarlo manifest: num_seeds must be positive")
	}
	return nil
}
