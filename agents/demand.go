package agents

import (
	"flatsim/agent"
	"flatsim/internal/seed"
)

// DemandAgent models organic flatcoin demand: with some per-block
// probability it opens a new, conservatively collateralized vault sized
// from its own seeded stream. Activity is stochastic per spec.md §5's
// "non-arber agents may be subject to stochastic activity gating keyed by
// the seed" rule.
type DemandAgent struct {
	Name    string
	RunSeed uint64

	ActivityProbability float64
	CollateralMin       float64
	CollateralMax       float64
	TargetRatio         float64 // multiple of RMin used to size debt
}

func NewDemandAgent(name string, runSeed uint64) *DemandAgent {
	return &DemandAgent{
		Name:                name,
		RunSeed:             runSeed,
		ActivityProbability: 0.05,
		CollateralMin:       50,
		CollateralMax:       500,
		TargetRatio:         1.8,
	}
}

func (a *DemandAgent) ID() string { return a.Name }

func (a *DemandAgent) Act(view agent.View) []agent.Op {
	if view.OpenPaused || view.TwapPrice <= 0 || view.RMin <= 0 {
		return nil
	}
	rng := seed.AgentStream(a.RunSeed, a.Name, view.Block)
	if rng.Float64() > a.ActivityProbability {
		return nil
	}

	span := a.CollateralMax - a.CollateralMin
	collateral := a.CollateralMin + rng.Float64()*span
	debt := collateral * view.TwapPrice / (a.TargetRatio * view.RMin)
	if debt < view.DFloor {
		return nil
	}
	return []agent.Op{{Kind: agent.OpenVault, Amount: collateral, Amount2: debt}}
}
