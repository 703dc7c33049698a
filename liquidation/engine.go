// Package liquidation selects under-collateralized vaults, realizes
// collateral through the AMM (or, in Transparent mode, at spot with zero
// slippage), settles debt, and distributes the liquidation penalty.
package liquidation

import (
	"sort"

	"flatsim/amm"
	"flatsim/vault"
)

// Engine runs the liquidation pipeline for one block at a time against a
// borrowed registry and pool. It retains no cross-block state of its own;
// all state lives in the registry and pool it is handed.
type Engine struct {
	cfg Config
}

// NewEngine constructs a liquidation engine for the given config.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Mode reports the liquidation mechanism this engine was configured with.
func (e *Engine) Mode() Mode { return e.cfg.Mode }

// candidate is an eligible vault paired with the TWAP-based ratio used to
// order processing (ascending, most under-collateralized first).
type candidate struct {
	id    uint64
	rTwap float64
}

// Run executes one block of the liquidation pipeline: it accrues fees on
// every open vault, selects full- then graduated-eligible vaults ascending
// by R_twap up to the per-block cap, executes settlement, and returns the
// executed outcomes plus the zombie vault snapshot for this block.
func (e *Engine) Run(reg *vault.Registry, pool *amm.Pool, priceTwap, priceSpot float64, block uint64) ([]Outcome, []uint64, error) {
	ids := reg.IDs()
	full := make([]candidate, 0, len(ids))
	zombies := make([]uint64, 0)

	for _, id := range ids {
		if err := reg.Accrue(id, block); err != nil {
			return nil, nil, err
		}
		rTwap, err := reg.CollateralRatio(id, priceTwap)
		if err != nil {
			return nil, nil, err
		}
		rSpot, err := reg.CollateralRatio(id, priceSpot)
		if err != nil {
			return nil, nil, err
		}
		// With a graduated floor configured, vaults in [R_floor, R_min) are
		// left to the graduated pass below instead of the full pass.
		if rTwap < e.cfg.RMin && !(e.cfg.RFloor > 0 && rTwap >= e.cfg.RFloor) {
			full = append(full, candidate{id, rTwap})
		}
		if rTwap >= e.cfg.RMin && rSpot < e.cfg.RMin && (rTwap-rSpot) > e.cfg.Theta {
			zombies = append(zombies, id)
		}
	}

	sort.Slice(full, func(i, j int) bool { return full[i].rTwap < full[j].rTwap })

	outcomes := make([]Outcome, 0, len(full))
	if e.cfg.Mode == ZombieDetector {
		return outcomes, zombies, nil
	}

	processed := map[uint64]bool{}
	remaining := e.cfg.LMax
	for _, c := range full {
		if remaining <= 0 {
			break
		}
		v, ok := reg.Get(c.id)
		if !ok {
			continue
		}
		out, err := e.liquidateFull(reg, pool, v)
		if err != nil {
			return nil, nil, err
		}
		outcomes = append(outcomes, out)
		processed[c.id] = true
		remaining--
	}

	if remaining > 0 && e.cfg.RFloor > 0 {
		grad := make([]candidate, 0)
		for _, id := range ids {
			if processed[id] {
				continue
			}
			if _, ok := reg.Get(id); !ok {
				continue
			}
			rTwap, err := reg.CollateralRatio(id, priceTwap)
			if err != nil {
				return nil, nil, err
			}
			if rTwap >= e.cfg.RFloor && rTwap < e.cfg.RMin {
				grad = append(grad, candidate{id, rTwap})
			}
		}
		sort.Slice(grad, func(i, j int) bool { return grad[i].rTwap < grad[j].rTwap })
		for _, c := range grad {
			if remaining <= 0 {
				break
			}
			v, ok := reg.Get(c.id)
			if !ok {
				continue
			}
			out, err := e.liquidateGraduated(reg, pool, v)
			if err != nil {
				return nil, nil, err
			}
			outcomes = append(outcomes, out)
			remaining--
		}
	}

	return outcomes, zombies, nil
}

// seize realizes v.Collateral into debt-token value, routing through the
// AMM in cascading modes or computing an equivalent zero-slippage fill at
// spot in Transparent mode, per spec.md §9's resolved open question.
func (e *Engine) seize(pool *amm.Pool, collateral, priceSpot float64) (float64, error) {
	switch e.cfg.Mode {
	case Transparent:
		return collateral * priceSpot, nil
	default:
		dy, err := pool.SwapXForY(collateral)
		if err != nil {
			return 0, ErrAmmSwapFailed
		}
		return dy, nil
	}
}

func (e *Engine) keeperShare() float64 {
	if e.cfg.Mode == ChallengeResponse {
		return e.cfg.KappaChallenge
	}
	return e.cfg.Kappa
}

// liquidateFull implements the five-step full liquidation procedure of
// spec.md §4.3.
func (e *Engine) liquidateFull(reg *vault.Registry, pool *amm.Pool, v *vault.Vault) (Outcome, error) {
	d := v.Debt
	obligation := d * (1 + e.cfg.Lambda)

	priceSpot, err := pool.SpotPrice()
	if err != nil {
		return Outcome{}, err
	}
	dyAmm, err := e.seize(pool, v.Collateral, priceSpot)
	if err != nil {
		return Outcome{}, err
	}

	var badDebt, penalty, surplus float64
	switch {
	case dyAmm >= obligation:
		penalty = d * e.cfg.Lambda
		surplus = dyAmm - obligation
	case dyAmm >= d:
		penalty = dyAmm - d
	default:
		badDebt = d - dyAmm
	}

	keeper := penalty * e.keeperShare()
	toLP := (penalty - keeper) * e.cfg.AlphaLP
	toTreasury := penalty - keeper - toLP
	if toLP > 0 {
		if err := pool.InjectPenalty(toLP); err != nil {
			return Outcome{}, err
		}
	}

	out := Outcome{
		VaultID:          v.ID,
		Owner:            v.Owner,
		Mode:             e.cfg.Mode,
		CollateralSeized: v.Collateral,
		DebtSettled:      d - badDebt,
		BadDebt:          badDebt,
		Penalty:          penalty,
		Surplus:          surplus,
		Keeper:           keeper,
		ToLP:             toLP,
		ToTreasury:       toTreasury,
	}
	reg.Delete(v.ID)
	return out, nil
}

// liquidateGraduated implements the partial, self-backed liquidation of
// spec.md §4.3: seize a fraction of collateral, sell it, and back-solve
// the covered debt from proceeds so the realized penalty is always
// physically backed.
func (e *Engine) liquidateGraduated(reg *vault.Registry, pool *amm.Pool, v *vault.Vault) (Outcome, error) {
	cSeized := v.Collateral * e.cfg.Gamma
	priceSpot, err := pool.SpotPrice()
	if err != nil {
		return Outcome{}, err
	}
	dyAmm, err := e.seize(pool, cSeized, priceSpot)
	if err != nil {
		return Outcome{}, err
	}

	dCovered := dyAmm / (1 + e.cfg.Lambda)
	penaltyRealized := dyAmm - dCovered

	keeper := penaltyRealized * e.keeperShare()
	toLP := (penaltyRealized - keeper) * e.cfg.AlphaLP
	toTreasury := penaltyRealized - keeper - toLP
	if toLP > 0 {
		if err := pool.InjectPenalty(toLP); err != nil {
			return Outcome{}, err
		}
	}

	v.Collateral -= cSeized
	v.Debt -= dCovered

	return Outcome{
		VaultID:          v.ID,
		Owner:            v.Owner,
		Mode:             e.cfg.Mode,
		CollateralSeized: cSeized,
		DebtSettled:      dCovered,
		Penalty:          penaltyRealized,
		Keeper:           keeper,
		ToLP:             toLP,
		ToTreasury:       toTreasury,
		Graduated:        true,
	}, nil
}

// SelfLiquidate is owner-initiated and always settles at the reduced
// self-liquidation penalty lambda*alphaSelf; with alphaSelf=0 the penalty
// is zero. There is no keeper cut since no third party executed it.
func (e *Engine) SelfLiquidate(reg *vault.Registry, pool *amm.Pool, id uint64) (Outcome, error) {
	v, ok := reg.Get(id)
	if !ok {
		return Outcome{}, ErrVaultNotFound
	}
	d := v.Debt
	lambdaEff := e.cfg.Lambda * e.cfg.AlphaSelf
	obligation := d * (1 + lambdaEff)

	priceSpot, err := pool.SpotPrice()
	if err != nil {
		return Outcome{}, err
	}
	dyAmm, err := e.seize(pool, v.Collateral, priceSpot)
	if err != nil {
		return Outcome{}, err
	}

	var badDebt, penalty, surplus float64
	switch {
	case dyAmm >= obligation:
		penalty = d * lambdaEff
		surplus = dyAmm - obligation
	case dyAmm >= d:
		penalty = dyAmm - d
	default:
		badDebt = d - dyAmm
	}

	toLP := penalty * e.cfg.AlphaLP
	toTreasury := penalty - toLP
	if toLP > 0 {
		if err := pool.InjectPenalty(toLP); err != nil {
			return Outcome{}, err
		}
	}

	out := Outcome{
		VaultID:          v.ID,
		Owner:            v.Owner,
		Mode:             e.cfg.Mode,
		CollateralSeized: v.Collateral,
		DebtSettled:      d - badDebt,
		BadDebt:          badDebt,
		Penalty:          penalty,
		Surplus:          surplus,
		ToLP:             toLP,
		ToTreasury:       toTreasury,
	}
	reg.Delete(id)
	return out, nil
}
