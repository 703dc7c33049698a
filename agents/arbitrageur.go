// Package agents supplies minimal concrete implementations of the closed
// agent.Agent capability: an arbitrageur, a demand agent, a miner, a CDP
// holder, a liquidity provider, and an attacker. Per spec.md's scope note,
// the agent library is an external collaborator specified only by the
// interface it calls on the engine; these are a reference implementation
// of that interface, not part of the core engine.
package agents

import "flatsim/agent"

// Arbitrageur closes the gap between the external reference price and the
// AMM spot price by trading a bounded fraction of the gap each block. It
// is deterministic: the same (p_ext, p_spot) sequence always produces the
// same trade sequence, drawing no randomness.
type Arbitrageur struct {
	Name string

	// MaxTradeFraction bounds a single block's trade to this fraction of
	// the x reserve, preventing the arber from single-handedly draining
	// the pool when the gap is extreme.
	MaxTradeFraction float64

	// AggressionFraction controls how much of the remaining gap the
	// arber closes per block; 1.0 would attempt to close it entirely
	// (subject to the reserve cap), smaller values close it gradually.
	AggressionFraction float64
}

// NewArbitrageur constructs an arber with default tuning fractions
// (MaxTradeFraction 0.05, AggressionFraction 0.5).
func NewArbitrageur(name string) *Arbitrageur {
	return &Arbitrageur{Name: name, MaxTradeFraction: 0.05, AggressionFraction: 0.5}
}

func (a *Arbitrageur) ID() string { return a.Name }

func (a *Arbitrageur) Act(view agent.View) []agent.Op {
	if view.ExternalPrice <= 0 || view.SpotPrice <= 0 {
		return nil
	}
	gap := view.ExternalPrice - view.SpotPrice
	if gap == 0 {
		return nil
	}

	maxTrade := view.ReserveX * a.MaxTradeFraction
	if maxTrade <= 0 {
		return nil
	}

	// Spot = y/x; selling x raises x and lowers spot, selling y raises y
	// and raises spot. Trade size is scaled by the relative gap, bounded
	// by maxTrade.
	relGap := gap / view.SpotPrice
	if relGap < 0 {
		relGap = -relGap
	}
	size := view.ReserveX * relGap * a.AggressionFraction
	if size > maxTrade {
		size = maxTrade
	}
	if size <= 0 {
		return nil
	}

	if gap > 0 {
		// External price above spot: AMM is underpriced in y, buy x with
		// y to push spot up.
		dy := size * view.SpotPrice
		if dy <= 0 {
			return nil
		}
		return []agent.Op{{Kind: agent.SwapYToX, Amount: dy}}
	}
	// External price below spot: AMM overpriced, sell x for y to push
	// spot down.
	return []agent.Op{{Kind: agent.SwapXToY, Amount: size}}
}
