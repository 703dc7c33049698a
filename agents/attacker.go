package agents

import (
	"flatsim/agent"
	"flatsim/internal/seed"
)

// Attacker models a TWAP-manipulation adversary: with a seeded activity
// probability it spikes the spot price with a large one-block swap, then
// unwinds the position on the following block. The intent is to exercise
// the engine's spot/TWAP divergence under an adversarial actor, not to
// model profit-seeking precisely.
type Attacker struct {
	Name    string
	RunSeed uint64

	ActivityProbability float64
	SpikeFraction       float64 // fraction of reserveY used to spike

	positioned  bool
	spikeAmount float64
}

func NewAttacker(name string, runSeed uint64) *Attacker {
	return &Attacker{Name: name, RunSeed: runSeed, ActivityProbability: 0.02, SpikeFraction: 0.1}
}

func (a *Attacker) ID() string { return a.Name }

func (a *Attacker) Act(view agent.View) []agent.Op {
	if a.positioned {
		a.positioned = false
		dx := a.spikeAmount
		a.spikeAmount = 0
		if dx <= 0 {
			return nil
		}
		return []agent.Op{{Kind: agent.SwapXToY, Amount: dx}}
	}

	if view.ReserveY <= 0 {
		return nil
	}
	rng := seed.AgentStream(a.RunSeed, a.Name, view.Block)
	if rng.Float64() > a.ActivityProbability {
		return nil
	}
	dy := view.ReserveY * a.SpikeFraction
	if dy <= 0 {
		return nil
	}
	a.positioned = true
	a.spikeAmount = dy / view.SpotPrice
	return []agent.Op{{Kind: agent.SwapYToX, Amount: dy}}
}
