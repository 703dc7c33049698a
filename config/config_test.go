package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("expected the default config to validate, got %v", err)
	}
}

func TestLoadCreatesDefaultWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flatsim.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Run.ScenarioID != "steady" {
		t.Fatalf("expected default scenario_id steady, got %q", cfg.Run.ScenarioID)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config file to be written: %v", err)
	}
}

func TestLoadRoundTripsWrittenConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flatsim.toml")
	if _, err := Load(path); err != nil {
		t.Fatalf("initial Load: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if cfg.Amm.ReserveX != Default().Amm.ReserveX {
		t.Fatalf("expected round-tripped reserve_x to match default, got %v", cfg.Amm.ReserveX)
	}
}

func TestValidateRejectsDegenerateReserves(t *testing.T) {
	cfg := Default()
	cfg.Amm.ReserveX = 0
	if err := cfg.Validate(); err != ErrConfigInvalid {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestValidateRejectsInvertedControllerBounds(t *testing.T) {
	cfg := Default()
	cfg.Controller.RateMin = 1
	cfg.Controller.RateMax = -1
	if err := cfg.Validate(); err != ErrConfigInvalid {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestValidateRejectsZeroBlockHorizon(t *testing.T) {
	cfg := Default()
	cfg.Run.NumBlocks = 0
	if err := cfg.Validate(); err != ErrConfigInvalid {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestLoadSweepSpecRequiresSeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sweep.yaml")
	if err := os.WriteFile(path, []byte("scenario_id: [steady]\nseeds: []\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadSweepSpec(path); err == nil {
		t.Fatalf("expected an error for a sweep manifest with no seeds")
	}
}

func TestLoadSweepSpecParsesGrid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sweep.yaml")
	body := "scenario_id: [steady, black_thursday]\nseeds: [1, 2, 3]\ngrid:\n  vault.r_min: [1.3, 1.5, 1.8]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	spec, err := LoadSweepSpec(path)
	if err != nil {
		t.Fatalf("LoadSweepSpec: %v", err)
	}
	if len(spec.ScenarioID) != 2 || len(spec.Seeds) != 3 {
		t.Fatalf("unexpected spec shape: %+v", spec)
	}
	if len(spec.Grid["vault.r_min"]) != 3 {
		t.Fatalf("expected 3 grid values for vault.r_min, got %+v", spec.Grid)
	}
}

func TestLoadMonteCarloSpecRequiresNumSeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mc.yaml")
	if err := os.WriteFile(path, []byte("scenario_id: [steady]\nnum_seeds: 0\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadMonteCarloSpec(path); err == nil {
		t.Fatalf("expected an error for num_seeds: 0")
	}
}
