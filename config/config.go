// Package config loads the immutable per-run configuration of spec.md §3
// from TOML, using a load-or-create-default pattern: a missing file is
// written out with the default configuration.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// AmmConfig seeds the genesis pool.
type AmmConfig struct {
	ReserveX float64 `toml:"reserve_x"`
	ReserveY float64 `toml:"reserve_y"`
	SwapFee  float64 `toml:"swap_fee"`
}

// VaultConfig groups the CDP risk parameters of spec.md §3/§4.2.
type VaultConfig struct {
	RMin               float64 `toml:"r_min"`
	DFloor             float64 `toml:"d_floor"`
	StabilityFeeAnnual float64 `toml:"stability_fee_annual"`
	BlocksPerYear      float64 `toml:"blocks_per_year"`
	TwapWindow         uint64  `toml:"twap_window"`
}

// LiquidationConfig groups the liquidation-engine parameters of spec.md
// §4.3; Mode is one of "transparent", "cascade_amm", "challenge_response",
// "graduated_partial", "zombie_detector".
type LiquidationConfig struct {
	Mode           string  `toml:"mode"`
	Lambda         float64 `toml:"lambda"`
	Kappa          float64 `toml:"kappa"`
	KappaChallenge float64 `toml:"kappa_challenge"`
	AlphaLP        float64 `toml:"alpha_lp"`
	AlphaSelf      float64 `toml:"alpha_self"`
	Gamma          float64 `toml:"gamma"`
	RFloor         float64 `toml:"r_floor"`
	Theta          float64 `toml:"theta"`
	LMax           int     `toml:"l_max"`
}

// ControllerConfig groups the redemption-rate controller parameters of
// spec.md §4.4; Mode is "pi" or "tick".
type ControllerConfig struct {
	Mode         string  `toml:"mode"`
	Kp           float64 `toml:"kp"`
	Ki           float64 `toml:"ki"`
	S            float64 `toml:"s"`
	RateMin      float64 `toml:"rate_min"`
	RateMax      float64 `toml:"rate_max"`
	IntegralMin  float64 `toml:"integral_min"`
	IntegralMax  float64 `toml:"integral_max"`
	InitialPrice float64 `toml:"initial_price"`
}

// BreakerConfig groups the circuit-breaker thresholds of spec.md §4.5.
type BreakerConfig struct {
	TauTwap             float64 `toml:"tau_twap"`
	LCascade            int     `toml:"l_cascade"`
	DebtCeilingRatio    float64 `toml:"debt_ceiling_ratio"`
	SuspendLiquidations bool    `toml:"suspend_liquidations"`
}

// ThresholdConfig groups the verdict-classification thresholds of spec.md
// §4.7.
type ThresholdConfig struct {
	BadDebt          float64 `toml:"bad_debt"`
	SoftPegDeviation float64 `toml:"soft_peg_deviation"`
	MaxPegDeviation  float64 `toml:"max_peg_deviation"`
	CascadeFireLimit int     `toml:"cascade_fire_limit"`
}

// RunConfig groups the batch-mode driver inputs of spec.md §6: the
// scenario to drive, the block horizon, and the seed/noise that make a
// run reproducible.
type RunConfig struct {
	ScenarioID string  `toml:"scenario_id"`
	NumBlocks  uint64  `toml:"num_blocks"`
	Seed       uint64  `toml:"seed"`
	NoiseSigma float64 `toml:"noise_sigma"`
	NoiseShape float64 `toml:"noise_shape"`
}

// Config is the complete immutable run configuration.
type Config struct {
	Amm         AmmConfig         `toml:"amm"`
	Vault       VaultConfig       `toml:"vault"`
	Liquidation LiquidationConfig `toml:"liquidation"`
	Controller  ControllerConfig  `toml:"controller"`
	Breaker     BreakerConfig     `toml:"breaker"`
	Thresholds  ThresholdConfig   `toml:"thresholds"`
	Run         RunConfig         `toml:"run"`
}

// Load reads a TOML configuration from path, creating a default file there
// if none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// createDefault writes and returns the canonical steady-scenario default
// configuration, used for first-run bootstrapping.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the baseline configuration used by the "steady" scenario
// and as the seed for sweep/Monte Carlo manifests.
func Default() *Config {
	return &Config{
		Amm: AmmConfig{ReserveX: 1_000_000, ReserveY: 50_000_000, SwapFee: 0.003},
		Vault: VaultConfig{
			RMin: 1.5, DFloor: 100, StabilityFeeAnnual: 0.02, BlocksPerYear: 400_000, TwapWindow: 50,
		},
		Liquidation: LiquidationConfig{
			Mode: "cascade_amm", Lambda: 0.13, Kappa: 0.1, KappaChallenge: 0.3, AlphaLP: 0.5,
			AlphaSelf: 0, Gamma: 0.25, RFloor: 1.1, Theta: 0.05, LMax: 20,
		},
		Controller: ControllerConfig{
			Mode: "pi", Kp: 1e-7, Ki: 1e-9, RateMin: -0.0001, RateMax: 0.0001,
			IntegralMin: -0.0001, IntegralMax: 0.0001, InitialPrice: 1.0,
		},
		Breaker: BreakerConfig{TauTwap: 0.1, LCascade: 10, DebtCeilingRatio: 0.9, SuspendLiquidations: false},
		Thresholds: ThresholdConfig{
			BadDebt: 0, SoftPegDeviation: 0.10, MaxPegDeviation: 0.20, CascadeFireLimit: 10,
		},
		Run: RunConfig{ScenarioID: "steady", NumBlocks: 1000, Seed: 1},
	}
}

// Validate rejects a configuration that would violate an engine
// construction-time invariant, per spec.md §7's ConfigInvalid kind.
func (cfg *Config) Validate() error {
	if cfg.Amm.ReserveX <= 0 || cfg.Amm.ReserveY <= 0 {
		return ErrConfigInvalid
	}
	if cfg.Amm.SwapFee < 0 || cfg.Amm.SwapFee >= 1 {
		return ErrConfigInvalid
	}
	if cfg.Vault.RMin <= 1 || cfg.Vault.DFloor < 0 || cfg.Vault.BlocksPerYear <= 0 {
		return ErrConfigInvalid
	}
	if cfg.Liquidation.LMax <= 0 {
		return ErrConfigInvalid
	}
	if cfg.Controller.RateMin > cfg.Controller.RateMax {
		return ErrConfigInvalid
	}
	if cfg.Controller.InitialPrice <= 0 {
		return ErrConfigInvalid
	}
	if cfg.Run.NumBlocks == 0 {
		return ErrConfigInvalid
	}
	return nil
}
