package scenario

import "math"

// Steady grounds on spec.md §8 example 1: a flat $50 external price, used
// to establish the engine's zero-liquidation, sub-1%-deviation baseline.
func Steady(block uint64, runSeed uint64, noise NoiseParams) float64 {
	return jitter("steady", block, runSeed, noise, 50)
}

// BlackThursday grounds on spec.md §8 example 2: $50 -> $20 over the
// first 100 blocks, then $20 -> $35 over the following 150, flat after.
func BlackThursday(block uint64, runSeed uint64, noise NoiseParams) float64 {
	var base float64
	switch {
	case block <= 100:
		base = lerp(50, 20, float64(block)/100)
	case block <= 250:
		base = lerp(20, 35, float64(block-100)/150)
	default:
		base = 35
	}
	return jitter("black_thursday", block, runSeed, noise, base)
}

// FlashCrash is a sharp V-shaped dip: price drops nearly half over 10
// blocks and recovers most of the way over the following 20.
func FlashCrash(block uint64, runSeed uint64, noise NoiseParams) float64 {
	var base float64
	switch {
	case block <= 10:
		base = lerp(50, 26, float64(block)/10)
	case block <= 30:
		base = lerp(26, 48, float64(block-10)/20)
	default:
		base = 48
	}
	return jitter("flash_crash", block, runSeed, noise, base)
}

// SustainedBear grounds on spec.md §8 example 3: $50 -> $15 decline over
// 1000 blocks. A positive noise.Shape selects an exponential decay rate
// in place of the default linear decline.
func SustainedBear(block uint64, runSeed uint64, noise NoiseParams) float64 {
	const (
		start   = 50.0
		end     = 15.0
		horizon = 1000.0
	)
	var base float64
	switch {
	case block >= horizon:
		base = end
	case noise.Shape > 0:
		base = start * math.Exp(-noise.Shape*float64(block)/horizon)
		if base < end {
			base = end
		}
	default:
		base = lerp(start, end, float64(block)/horizon)
	}
	return jitter("sustained_bear", block, runSeed, noise, base)
}

// BankRun models a rapid confidence collapse: price holds near $50 until
// block 200, then decays exponentially toward a floor.
func BankRun(block uint64, runSeed uint64, noise NoiseParams) float64 {
	const trigger = 200
	base := 50.0
	if block >= trigger {
		t := float64(block - trigger)
		base = 50 * math.Exp(-t/20)
		if base < 5 {
			base = 5
		}
	}
	return jitter("bank_run", block, runSeed, noise, base)
}

// Bull is a steady linear rise from $50 to $90 over 1000 blocks, the
// mirror case to SustainedBear.
func Bull(block uint64, runSeed uint64, noise NoiseParams) float64 {
	const horizon = 1000.0
	base := lerp(50, 90, float64(block)/horizon)
	return jitter("bull", block, runSeed, noise, base)
}

// TwapManipulation grounds on spec.md §8 example 7: a 2x, 2-block spike
// against a flat $50 baseline, modeling a brief external-feed dislocation
// distinct from the Attacker agent's direct AMM-reserve manipulation.
func TwapManipulation(block uint64, runSeed uint64, noise NoiseParams) float64 {
	base := 50.0
	if block == 500 || block == 501 {
		base = 100
	}
	return jitter("twap_manipulation", block, runSeed, noise, base)
}

// DemandShock is a sudden demand-driven price surge at block 300 that
// decays back toward baseline.
func DemandShock(block uint64, runSeed uint64, noise NoiseParams) float64 {
	const trigger = 300
	base := 50.0
	if block >= trigger {
		t := float64(block - trigger)
		base = 50 + 20*math.Exp(-t/50)
	}
	return jitter("demand_shock", block, runSeed, noise, base)
}

// MinerCapitulation is a gradual decline punctuated by periodic step-down
// waves, modeling recurring bursts of miner collateral selling.
func MinerCapitulation(block uint64, runSeed uint64, noise NoiseParams) float64 {
	const horizon = 800.0
	t := float64(block)
	if t > horizon {
		t = horizon
	}
	base := lerp(50, 25, t/horizon)
	if block > 0 && block%100 < 5 {
		base *= 0.95
	}
	return jitter("miner_capitulation", block, runSeed, noise, base)
}

// SequencerDowntime freezes the external feed over a window (no jitter
// while frozen) and resumes with a price gap, modeling a stalled oracle
// feed during an outage.
func SequencerDowntime(block uint64, runSeed uint64, noise NoiseParams) float64 {
	const (
		downStart = 100
		downEnd   = 150
	)
	if block >= downStart && block < downEnd {
		return 50
	}
	base := 50.0
	if block >= downEnd {
		base = 42
	}
	return jitter("sequencer_downtime", block, runSeed, noise, base)
}

// LiquidityCrisis is a choppy, oscillating price path used to stress LP
// entry/exit behavior under repeated TWAP/spot divergence.
func LiquidityCrisis(block uint64, runSeed uint64, noise NoiseParams) float64 {
	base := 50 + 5*math.Sin(float64(block)/7)
	return jitter("liquidity_crisis", block, runSeed, noise, base)
}
