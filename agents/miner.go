package agents

import (
	"flatsim/agent"
	"flatsim/internal/seed"
)

// Miner models periodic issuance-driven sell pressure: with some per-block
// probability it sells a bounded fraction of the x reserve for y,
// representing block-reward collateral hitting the market. Its probability
// and sell fraction are fixed fields and it does not read any price; in the
// "miner capitulation" scenario only the external price path differs.
type Miner struct {
	Name    string
	RunSeed uint64

	ActivityProbability float64
	SellFraction        float64
}

func NewMiner(name string, runSeed uint64) *Miner {
	return &Miner{Name: name, RunSeed: runSeed, ActivityProbability: 0.1, SellFraction: 0.002}
}

func (m *Miner) ID() string { return m.Name }

func (m *Miner) Act(view agent.View) []agent.Op {
	if view.ReserveX <= 0 {
		return nil
	}
	rng := seed.AgentStream(m.RunSeed, m.Name, view.Block)
	if rng.Float64() > m.ActivityProbability {
		return nil
	}
	dx := view.ReserveX * m.SellFraction
	if dx <= 0 {
		return nil
	}
	return []agent.Op{{Kind: agent.SwapXToY, Amount: dx}}
}
