// Package metrics defines the per-block and per-run observability records
// of spec.md §3/§4.7: BlockMetrics, RunSummary, and the PASS/SOFT FAIL/
// HARD FAIL verdict classification. It holds no simulation state of its
// own; the Scenario Engine snapshots a BlockMetrics once per block and the
// driver folds the stream into a RunSummary after the run completes.
package metrics

import (
	"math"

	"flatsim/metrics/telemetry"
)

// BlockMetrics is one record per simulated block, snapshotted as the last
// step of the Scenario Engine's per-block loop.
type BlockMetrics struct {
	Block uint64

	ExternalPrice float64
	SpotPrice     float64
	TwapPrice     float64
	ReserveX      float64
	ReserveY      float64

	RedemptionPrice float64
	RedemptionRate  float64

	Liquidations     int
	BadDebt          float64
	BreakerFired     bool
	TwapFired        bool
	CascadeFired     bool
	DebtCeilingFired bool

	Solvency    float64
	ZombieCount int

	PegDeviation float64
}

// Finalize derives PegDeviation from ExternalPrice and SpotPrice. It is
// separate from construction so the engine can fill the raw fields first
// and compute derived ones once, in one place.
func (m *BlockMetrics) Finalize() {
	if m.ExternalPrice == 0 {
		m.PegDeviation = 0
		return
	}
	m.PegDeviation = math.Abs(m.ExternalPrice-m.SpotPrice) / m.ExternalPrice
}

// RunSummary aggregates a BlockMetrics stream into the run-level figures
// spec.md §4.7 names: mean/max peg deviation, total liquidations, total
// bad debt, total breaker fires, and zombie duration.
type RunSummary struct {
	NumBlocks uint64

	MeanPegDeviation float64
	MaxPegDeviation  float64

	TotalLiquidations int
	TotalBadDebt      float64
	TotalBreakerFires int
	ZombieDuration    int

	MinSolvency float64

	Verdict Verdict

	// Telemetry is the in-process prometheus registry's read-back for
	// this run, folded in by the driver once the run completes.
	Telemetry telemetry.Snapshot
}

// Summarize folds a full BlockMetrics stream into a RunSummary and applies
// the verdict classification of spec.md §4.7 against thresholds.
func Summarize(blocks []BlockMetrics, thresholds Thresholds) RunSummary {
	s := RunSummary{NumBlocks: uint64(len(blocks)), MinSolvency: math.Inf(1)}
	if len(blocks) == 0 {
		s.MinSolvency = 0
		s.Verdict = Pass
		return s
	}

	var sumDeviation float64
	for _, b := range blocks {
		sumDeviation += b.PegDeviation
		if b.PegDeviation > s.MaxPegDeviation {
			s.MaxPegDeviation = b.PegDeviation
		}
		s.TotalLiquidations += b.Liquidations
		s.TotalBadDebt += b.BadDebt
		if b.BreakerFired {
			s.TotalBreakerFires++
		}
		if b.ZombieCount > 0 {
			s.ZombieDuration++
		}
		if b.Solvency < s.MinSolvency {
			s.MinSolvency = b.Solvency
		}
	}
	s.MeanPegDeviation = sumDeviation / float64(len(blocks))

	s.Verdict = classify(s, blocks, thresholds)
	return s
}

// Thresholds configures the verdict boundaries of spec.md §4.7; these are
// run configuration, not hard-coded constants.
type Thresholds struct {
	BadDebt          float64 // tau_baddebt: any single-block bad debt above this is a hard fail
	SoftPegDeviation float64 // tau_soft, applied to mean peg deviation
	MaxPegDeviation  float64 // tau_max, applied to max peg deviation
	CascadeFireLimit int     // repeated cascade-breaker fires beyond this is a hard fail
}

// DefaultThresholds matches the illustrative values of spec.md §4.7.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BadDebt:          0,
		SoftPegDeviation: 0.10,
		MaxPegDeviation:  0.20,
		CascadeFireLimit: 10,
	}
}

// Verdict is the closed classification of a completed run.
type Verdict int

const (
	Pass Verdict = iota
	SoftFail
	HardFail
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "PASS"
	case SoftFail:
		return "SOFT FAIL"
	case HardFail:
		return "HARD FAIL"
	default:
		return "UNKNOWN"
	}
}

func classify(s RunSummary, blocks []BlockMetrics, th Thresholds) Verdict {
	cascadeFires := 0
	for _, b := range blocks {
		if b.BadDebt > th.BadDebt {
			return HardFail
		}
		if b.CascadeFired {
			cascadeFires++
		}
	}
	if s.MinSolvency < 1 {
		return HardFail
	}
	if th.CascadeFireLimit > 0 && cascadeFires > th.CascadeFireLimit {
		return HardFail
	}
	if s.MeanPegDeviation > th.SoftPegDeviation || s.MaxPegDeviation > th.MaxPegDeviation {
		return SoftFail
	}
	return Pass
}
