// Package breaker implements the three circuit breakers of spec.md §4.5
// (TWAP-deviation, cascade, dynamic debt ceiling) and the aggregate gate
// the Scenario Engine consults before dispatching agent actions that open,
// borrow, or (optionally) liquidate.
package breaker

import "math"

// Config groups the immutable breaker thresholds for a run.
type Config struct {
	TauTwap          float64 // TWAP-deviation trigger: |p_spot-p_twap|/p_twap
	LCascade         int     // liquidations-per-block trigger
	DebtCeilingRatio float64 // D/E trigger

	// SuspendLiquidations controls whether a fired breaker also pauses the
	// liquidation engine for the block; opens and borrows are always
	// suspended while any breaker is fired, per spec.md §4.5.
	SuspendLiquidations bool
}

// State is the evaluated fire/clear status of each breaker for one block.
type State struct {
	TwapDeviationFired bool
	CascadeFired       bool
	DebtCeilingFired   bool
}

// AnyFired reports whether at least one breaker fired this block.
func (s State) AnyFired() bool {
	return s.TwapDeviationFired || s.CascadeFired || s.DebtCeilingFired
}

// Bank is the aggregate breaker evaluator for a run: it owns the three
// threshold checks and the resulting per-block pause decision.
type Bank struct {
	cfg   Config
	state State
}

// NewBank constructs a breaker bank under the given config. All breakers
// start clear.
func NewBank(cfg Config) *Bank {
	return &Bank{cfg: cfg}
}

// Evaluate runs all three breaker checks for the current block and stores
// the result for subsequent IsPaused queries. totalCollateralValue is the
// AMM-price-denominated sum of collateral (E); totalDebt is D.
func (b *Bank) Evaluate(pSpot, pTwap float64, liquidationsThisBlock int, totalDebt, totalCollateralValue float64) State {
	var twapFired bool
	if pTwap > 0 {
		twapFired = math.Abs(pSpot-pTwap)/pTwap > b.cfg.TauTwap
	}
	cascadeFired := liquidationsThisBlock > b.cfg.LCascade
	var debtFired bool
	if totalCollateralValue > 0 {
		debtFired = totalDebt/totalCollateralValue > b.cfg.DebtCeilingRatio
	}
	b.state = State{
		TwapDeviationFired: twapFired,
		CascadeFired:       cascadeFired,
		DebtCeilingFired:   debtFired,
	}
	return b.state
}

// State returns the most recently evaluated breaker state.
func (b *Bank) State() State { return b.state }

// IsPaused reports whether the named operation is suspended this block
// given the last Evaluate call. It satisfies the PauseView capability the
// engine consults before dispatching agent actions.
func (b *Bank) IsPaused(op string) bool {
	if !b.state.AnyFired() {
		return false
	}
	switch op {
	case "open", "borrow":
		return true
	case "liquidation":
		return b.cfg.SuspendLiquidations
	default:
		return false
	}
}

// Guard returns ErrOperationSuspended if op is currently paused, nil
// otherwise.
func Guard(b *Bank, op string) error {
	if b == nil || op == "" {
		return nil
	}
	if b.IsPaused(op) {
		return ErrOperationSuspended
	}
	return nil
}
