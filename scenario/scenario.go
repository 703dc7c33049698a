// Package scenario supplies pure external-reference-price generators.
// Per spec.md §1, the scenario library is an external collaborator: a
// Generator is a pure function of block index, run seed, and noise
// parameters with no hidden state, so the same arguments always produce
// the same price.
package scenario

import (
	"math"

	"flatsim/internal/seed"
)

// Generator produces the external reference price at block, given the
// run's seed and jitter configuration.
type Generator func(block uint64, runSeed uint64, noise NoiseParams) float64

// NoiseParams controls the stochastic jitter layered onto a generator's
// deterministic base curve. Zero value disables all jitter and shaping,
// making every generator's output deterministic given (block, runSeed).
type NoiseParams struct {
	// Sigma is the jitter standard deviation as a fraction of the base
	// price at that block.
	Sigma float64
	// Shape is an optional per-generator curve-shape parameter; only
	// SustainedBear currently consults it (a positive value selects an
	// exponential decay rate in place of the default linear decline).
	Shape float64
}

// jitter derives a block-scoped gaussian perturbation from the run seed
// and a generator-specific label, so two generators never draw from the
// same stream and the same (runSeed, block) always reproduces.
func jitter(name string, block uint64, runSeed uint64, noise NoiseParams, base float64) float64 {
	if noise.Sigma <= 0 {
		return base
	}
	rng := seed.AgentStream(runSeed, "scenario:"+name, block)
	return base * (1 + noise.Sigma*rng.NormFloat64())
}

// lerp linearly interpolates a->b as t ranges over [0,1], clamping t.
func lerp(a, b, t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return a + (b-a)*t
}

// registry maps scenario ids to their Generator, for driver-level lookup
// from run configuration.
var registry = map[string]Generator{
	"steady":             Steady,
	"black_thursday":     BlackThursday,
	"flash_crash":        FlashCrash,
	"sustained_bear":     SustainedBear,
	"bank_run":           BankRun,
	"bull":               Bull,
	"twap_manipulation":  TwapManipulation,
	"demand_shock":       DemandShock,
	"miner_capitulation": MinerCapitulation,
	"sequencer_downtime": SequencerDowntime,
	"liquidity_crisis":   LiquidityCrisis,
}

// Lookup resolves a scenario id to its Generator. ok is false for an
// unrecognized id.
func Lookup(id string) (Generator, bool) {
	g, ok := registry[id]
	return g, ok
}

// IDs returns all registered scenario ids.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	return ids
}
