package agents

import (
	"testing"

	"flatsim/agent"
)

var (
	_ agent.Agent = (*Arbitrageur)(nil)
	_ agent.Agent = (*DemandAgent)(nil)
	_ agent.Agent = (*Miner)(nil)
	_ agent.Agent = (*CDPHolder)(nil)
	_ agent.Agent = (*LP)(nil)
	_ agent.Agent = (*Attacker)(nil)
)

func TestArbitrageurSellsXWhenSpotAboveExternal(t *testing.T) {
	a := NewArbitrageur("arb")
	view := agent.View{ExternalPrice: 48, SpotPrice: 50, ReserveX: 100000, ReserveY: 5000000}
	ops := a.Act(view)
	if len(ops) != 1 || ops[0].Kind != agent.SwapXToY {
		t.Fatalf("expected a single SwapXToY when spot is above external, got %+v", ops)
	}
}

func TestArbitrageurBuysXWhenSpotBelowExternal(t *testing.T) {
	a := NewArbitrageur("arb")
	view := agent.View{ExternalPrice: 55, SpotPrice: 50, ReserveX: 100000, ReserveY: 5000000}
	ops := a.Act(view)
	if len(ops) != 1 || ops[0].Kind != agent.SwapYToX {
		t.Fatalf("expected a single SwapYToX when spot is below external, got %+v", ops)
	}
}

func TestArbitrageurNoOpWhenAtParity(t *testing.T) {
	a := NewArbitrageur("arb")
	view := agent.View{ExternalPrice: 50, SpotPrice: 50, ReserveX: 100000, ReserveY: 5000000}
	if ops := a.Act(view); ops != nil {
		t.Fatalf("expected no trade at parity, got %+v", ops)
	}
}

func TestArbitrageurTradeBoundedByMaxFraction(t *testing.T) {
	a := NewArbitrageur("arb")
	a.MaxTradeFraction = 0.01
	a.AggressionFraction = 1.0
	view := agent.View{ExternalPrice: 25, SpotPrice: 50, ReserveX: 100000, ReserveY: 5000000}
	ops := a.Act(view)
	if len(ops) != 1 {
		t.Fatalf("expected one op, got %+v", ops)
	}
	if ops[0].Amount > 100000*0.01+1e-9 {
		t.Fatalf("trade size %v exceeds MaxTradeFraction bound", ops[0].Amount)
	}
}

func TestDemandAgentDeterministicAcrossRuns(t *testing.T) {
	view := agent.View{Block: 10, TwapPrice: 50, RMin: 1.5, DFloor: 100}
	a1 := NewDemandAgent("demand", 7)
	a1.ActivityProbability = 1.0
	a2 := NewDemandAgent("demand", 7)
	a2.ActivityProbability = 1.0
	ops1 := a1.Act(view)
	ops2 := a2.Act(view)
	if len(ops1) != len(ops2) {
		t.Fatalf("expected identical op counts for identical seeds, got %d vs %d", len(ops1), len(ops2))
	}
	for i := range ops1 {
		if ops1[i] != ops2[i] {
			t.Fatalf("expected identical ops for identical seeds: %+v vs %+v", ops1[i], ops2[i])
		}
	}
}

func TestDemandAgentRespectsOpenPause(t *testing.T) {
	a := NewDemandAgent("demand", 7)
	a.ActivityProbability = 1.0
	view := agent.View{Block: 10, TwapPrice: 50, RMin: 1.5, DFloor: 100, OpenPaused: true}
	if ops := a.Act(view); ops != nil {
		t.Fatalf("expected no ops while opens are paused, got %+v", ops)
	}
}

func TestDemandAgentInactiveUnderLowProbability(t *testing.T) {
	a := NewDemandAgent("demand", 7)
	a.ActivityProbability = 0
	view := agent.View{Block: 10, TwapPrice: 50, RMin: 1.5, DFloor: 100}
	if ops := a.Act(view); ops != nil {
		t.Fatalf("expected no ops with zero activity probability, got %+v", ops)
	}
}

func TestMinerSellsBoundedFractionWhenActive(t *testing.T) {
	m := NewMiner("miner", 1)
	m.ActivityProbability = 1.0
	view := agent.View{Block: 1, ReserveX: 100000}
	ops := m.Act(view)
	if len(ops) != 1 || ops[0].Kind != agent.SwapXToY {
		t.Fatalf("expected a single SwapXToY, got %+v", ops)
	}
	closeTo(t, ops[0].Amount, 100000*m.SellFraction, 1e-9, "miner sell size")
}

func TestMinerInactiveUnderZeroProbability(t *testing.T) {
	m := NewMiner("miner", 1)
	m.ActivityProbability = 0
	view := agent.View{Block: 1, ReserveX: 100000}
	if ops := m.Act(view); ops != nil {
		t.Fatalf("expected no ops with zero activity probability, got %+v", ops)
	}
}

func TestCDPHolderTopsUpWhenBelowSafetyMargin(t *testing.T) {
	h := NewCDPHolder("holder", 1)
	view := agent.View{
		TwapPrice: 40,
		RMin:      1.5,
		Vaults:    []agent.VaultSnapshot{{ID: 1, Owner: "holder", Collateral: 200, Debt: 6000}},
	}
	// R = 200*40/6000 = 1.333, below RMin*(1.1) = 1.65: should top up.
	ops := h.Act(view)
	if len(ops) != 1 || ops[0].Kind != agent.Deposit || ops[0].VaultID != 1 {
		t.Fatalf("expected a single Deposit to vault 1, got %+v", ops)
	}
	if ops[0].Amount <= 0 {
		t.Fatalf("expected a positive top-up amount, got %v", ops[0].Amount)
	}
}

func TestCDPHolderNoOpWhenSafe(t *testing.T) {
	h := NewCDPHolder("holder", 1)
	view := agent.View{
		TwapPrice: 40,
		RMin:      1.5,
		Vaults:    []agent.VaultSnapshot{{ID: 1, Owner: "holder", Collateral: 300, Debt: 6000}},
	}
	// R = 300*40/6000 = 2.0, safely above RMin*1.1 = 1.65.
	if ops := h.Act(view); ops != nil {
		t.Fatalf("expected no top-up when safely collateralized, got %+v", ops)
	}
}

func TestCDPHolderSelfLiquidatesWhenBelowRMinAndOutOfFunds(t *testing.T) {
	h := NewCDPHolder("holder", 1)
	h.Balance = 0
	view := agent.View{
		TwapPrice: 40,
		RMin:      1.5,
		Vaults:    []agent.VaultSnapshot{{ID: 1, Owner: "holder", Collateral: 200, Debt: 6000}},
	}
	// R = 200*40/6000 = 1.333, below RMin 1.5, and no balance left to top up.
	ops := h.Act(view)
	if len(ops) != 1 || ops[0].Kind != agent.SelfLiquidate || ops[0].VaultID != 1 {
		t.Fatalf("expected a single SelfLiquidate for vault 1, got %+v", ops)
	}
}

func TestCDPHolderNoOpWithoutOwnVault(t *testing.T) {
	h := NewCDPHolder("holder", 1)
	view := agent.View{TwapPrice: 40, RMin: 1.5, Vaults: []agent.VaultSnapshot{{ID: 2, Collateral: 1, Debt: 1000}}}
	if ops := h.Act(view); ops != nil {
		t.Fatalf("expected no ops when the holder's vault is absent, got %+v", ops)
	}
}

func TestLPExitsUnderTwapSpotDeviation(t *testing.T) {
	l := NewLP("lp", 1)
	l.Shares = 100
	view := agent.View{Block: 1, TwapPrice: 50, SpotPrice: 60, ReserveX: 100000, ReserveY: 5000000}
	ops := l.Act(view)
	if len(ops) != 1 || ops[0].Kind != agent.RemoveLiquidity {
		t.Fatalf("expected a RemoveLiquidity under stress deviation, got %+v", ops)
	}
	closeTo(t, l.Shares, 50, 1e-9, "remaining shares after exit")
}

func TestLPNoExitWithoutShares(t *testing.T) {
	l := NewLP("lp", 1)
	view := agent.View{Block: 1, TwapPrice: 50, SpotPrice: 60, ReserveX: 100000, ReserveY: 5000000}
	l.EntryProbability = 0
	if ops := l.Act(view); ops != nil {
		t.Fatalf("expected no exit with zero shares held, got %+v", ops)
	}
}

func TestAttackerSpikesThenUnwinds(t *testing.T) {
	a := NewAttacker("attacker", 1)
	a.ActivityProbability = 1.0
	view1 := agent.View{Block: 1, SpotPrice: 50, ReserveX: 100000, ReserveY: 5000000}
	ops1 := a.Act(view1)
	if len(ops1) != 1 || ops1[0].Kind != agent.SwapYToX {
		t.Fatalf("expected a spike SwapYToX on the activation block, got %+v", ops1)
	}
	if !a.positioned {
		t.Fatalf("expected the attacker to record a position after spiking")
	}
	view2 := agent.View{Block: 2, SpotPrice: 100, ReserveX: 90000, ReserveY: 5500000}
	ops2 := a.Act(view2)
	if len(ops2) != 1 || ops2[0].Kind != agent.SwapXToY {
		t.Fatalf("expected an unwind SwapXToY on the following block, got %+v", ops2)
	}
	if a.positioned {
		t.Fatalf("expected the attacker to clear its position after unwinding")
	}
}

func closeTo(t *testing.T, got, want, eps float64, msg string) {
	t.Helper()
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	if diff > eps {
		t.Fatalf("%s: got %v, want %v (+/- %v)", msg, got, want, eps)
	}
}
