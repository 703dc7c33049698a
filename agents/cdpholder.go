package agents

import "flatsim/agent"

// CDPHolder owns a single vault and defends it: when its TWAP
// collateralization ratio falls within a configured safety margin above
// R_min, it proactively deposits additional collateral from its own
// balance to restore a target ratio rather than waiting for the
// liquidation engine. Once its balance is exhausted and the ratio has
// already fallen below R_min, it self-liquidates rather than wait to be
// seized by the liquidation engine at whatever price prevails next
// block. Holds no randomness: defensive behavior is a deterministic
// function of its own vault's state.
type CDPHolder struct {
	Name    string
	VaultID uint64

	// SafetyMargin triggers a defensive top-up when R_twap falls below
	// RMin*(1+SafetyMargin).
	SafetyMargin float64
	TargetRatio  float64 // multiple of RMin restored by a top-up

	// Balance is the holder's reserve of the collateral asset available
	// for defensive deposits; it is decremented locally as the holder
	// spends it (not tracked by the engine).
	Balance float64
}

func NewCDPHolder(name string, vaultID uint64) *CDPHolder {
	return &CDPHolder{Name: name, VaultID: vaultID, SafetyMargin: 0.1, TargetRatio: 1.5, Balance: 1000}
}

func (h *CDPHolder) ID() string { return h.Name }

func (h *CDPHolder) Act(view agent.View) []agent.Op {
	if view.TwapPrice <= 0 || view.RMin <= 0 {
		return nil
	}
	var v *agent.VaultSnapshot
	for i := range view.Vaults {
		if view.Vaults[i].ID == h.VaultID {
			v = &view.Vaults[i]
			break
		}
	}
	if v == nil || v.Debt == 0 {
		return nil
	}

	ratio := v.Collateral * view.TwapPrice / v.Debt
	threshold := view.RMin * (1 + h.SafetyMargin)
	if ratio >= threshold {
		return nil
	}

	targetCollateral := h.TargetRatio * view.RMin * v.Debt / view.TwapPrice
	needed := targetCollateral - v.Collateral
	if needed <= 0 {
		return nil
	}
	if needed > h.Balance {
		if h.Balance <= 0 {
			if ratio < view.RMin {
				return []agent.Op{{Kind: agent.SelfLiquidate, VaultID: h.VaultID}}
			}
			return nil
		}
		needed = h.Balance
	}
	h.Balance -= needed
	return []agent.Op{{Kind: agent.Deposit, Amount: needed, VaultID: h.VaultID}}
}
