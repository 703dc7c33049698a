package agents

import (
	"flatsim/agent"
	"flatsim/internal/seed"
)

// LP models a liquidity provider that enters with a seeded probability and
// exits under stress: it withdraws a fraction of its held shares whenever
// the TWAP/spot deviation (its only visible stress signal) exceeds a
// configured threshold, contributing to the "liquidity crisis" scenario;
// otherwise it occasionally adds liquidity in the prevailing reserve
// ratio.
type LP struct {
	Name    string
	RunSeed uint64

	Shares float64

	EntryProbability float64
	EntrySizeX       float64

	StressDeviation float64
	ExitFraction    float64
}

func NewLP(name string, runSeed uint64) *LP {
	return &LP{
		Name:             name,
		RunSeed:          runSeed,
		EntryProbability: 0.05,
		EntrySizeX:       1000,
		StressDeviation:  0.08,
		ExitFraction:     0.5,
	}
}

func (l *LP) ID() string { return l.Name }

func (l *LP) Act(view agent.View) []agent.Op {
	if view.TwapPrice <= 0 || view.SpotPrice <= 0 {
		return nil
	}
	deviation := (view.SpotPrice - view.TwapPrice) / view.TwapPrice
	if deviation < 0 {
		deviation = -deviation
	}
	if deviation > l.StressDeviation && l.Shares > 0 {
		burn := l.Shares * l.ExitFraction
		l.Shares -= burn
		return []agent.Op{{Kind: agent.RemoveLiquidity, Amount: burn}}
	}

	rng := seed.AgentStream(l.RunSeed, l.Name, view.Block)
	if rng.Float64() > l.EntryProbability || view.ReserveX <= 0 {
		return nil
	}
	dx := l.EntrySizeX
	dy := dx * view.ReserveY / view.ReserveX
	minted := dx / view.ReserveX
	l.Shares += minted
	return []agent.Op{{Kind: agent.AddLiquidity, Amount: dx, Amount2: dy}}
}
