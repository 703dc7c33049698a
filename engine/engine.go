// Package engine implements the Scenario Engine: the per-block loop of
// spec.md §4.6 that owns the AMM, vault registry, liquidation engine,
// redemption controller, and circuit breakers, and drives them through the
// fixed eight-step sequence every block.
package engine

import (
	"log/slog"
	"math"

	"flatsim/agent"
	"flatsim/amm"
	"flatsim/breaker"
	"flatsim/controller"
	"flatsim/liquidation"
	"flatsim/metrics"
	"flatsim/metrics/telemetry"
	"flatsim/scenario"
	"flatsim/vault"
)

// Config groups the immutable engine wiring that is independent of the
// pool/registry/controller/breaker instances themselves: the TWAP window
// used for breaker evaluation, the vault risk parameters agents need to
// see in their View, and the scenario's noise parameters.
type Config struct {
	TwapWindow uint64
	RMin       float64
	DFloor     float64
	Noise      scenario.NoiseParams
	RunSeed    uint64

	// ScenarioID and RunID label this run's telemetry series so a
	// process handling concurrent sweep/Monte Carlo runs can tell them
	// apart in the shared prometheus registry.
	ScenarioID string
	RunID      string
}

// Engine wires the coupled components together and owns the mutable
// simulation state for one run, per spec.md §3's ownership rule: "the
// Scenario Engine owns all mutable state."
type Engine struct {
	cfg Config

	pool       *amm.Pool
	registry   *vault.Registry
	liquidator *liquidation.Engine
	ctrl       *controller.Controller
	breakers   *breaker.Bank
	agents     []agent.Agent
	gen        scenario.Generator

	log *slog.Logger

	// selfLiqOutcomes accumulates this block's owner-initiated
	// self-liquidations, reset at the start of each Step and folded into
	// the block's liquidation/bad-debt totals alongside the liquidation
	// engine's own sweep.
	selfLiqOutcomes []liquidation.Outcome
}

// New constructs a Scenario Engine from its already-initialized
// components. Agents are dispatched in the order given; callers should
// pass them in the spec.md §4.6 fixed order (arbitrageurs, demand agents,
// miners, CDP holders, LPs, attackers).
func New(cfg Config, pool *amm.Pool, registry *vault.Registry, liquidator *liquidation.Engine, ctrl *controller.Controller, breakers *breaker.Bank, agents []agent.Agent, gen scenario.Generator, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:        cfg,
		pool:       pool,
		registry:   registry,
		liquidator: liquidator,
		ctrl:       ctrl,
		breakers:   breakers,
		agents:     agents,
		gen:        gen,
		log:        log,
	}
}

// Step executes one block of the spec.md §4.6 loop and returns its
// BlockMetrics snapshot.
func (e *Engine) Step(block uint64) (metrics.BlockMetrics, error) {
	pExt := e.gen(block, e.cfg.RunSeed, e.cfg.Noise)

	if err := e.pool.Observe(block); err != nil {
		return metrics.BlockMetrics{}, err
	}

	e.selfLiqOutcomes = nil
	e.dispatchAgents(block, pExt)

	priceTwap, err := e.pool.TWAP(e.cfg.TwapWindow)
	if err != nil {
		return metrics.BlockMetrics{}, err
	}
	priceSpot, err := e.pool.SpotPrice()
	if err != nil {
		return metrics.BlockMetrics{}, err
	}

	var outcomes []liquidation.Outcome
	var zombies []uint64
	if !e.breakers.IsPaused("liquidation") {
		outcomes, zombies, err = e.liquidator.Run(e.registry, e.pool, priceTwap, priceSpot, block)
		if err != nil {
			return metrics.BlockMetrics{}, err
		}
	}

	postLiqSpot, err := e.pool.SpotPrice()
	if err != nil {
		return metrics.BlockMetrics{}, err
	}
	if err := e.ctrl.Step(postLiqSpot, block); err != nil {
		return metrics.BlockMetrics{}, err
	}

	collateralValue := e.registry.TotalCollateral() * postLiqSpot
	newState := e.breakers.Evaluate(postLiqSpot, priceTwap, len(outcomes), e.registry.TotalDebt(), collateralValue)

	outcomes = append(outcomes, e.selfLiqOutcomes...)

	var badDebt float64
	for _, o := range outcomes {
		badDebt += o.BadDebt
	}

	solvency := math.Inf(1)
	if e.registry.TotalDebt() > 0 {
		solvency = e.registry.TotalCollateral() * priceTwap / e.registry.TotalDebt()
	}

	m := metrics.BlockMetrics{
		Block:            block,
		ExternalPrice:    pExt,
		SpotPrice:        postLiqSpot,
		TwapPrice:        priceTwap,
		ReserveX:         e.pool.X,
		ReserveY:         e.pool.Y,
		RedemptionPrice:  e.ctrl.RedemptionPrice(),
		RedemptionRate:   e.ctrl.RedemptionRate(),
		Liquidations:     len(outcomes),
		BadDebt:          badDebt,
		BreakerFired:     newState.AnyFired(),
		TwapFired:        newState.TwapDeviationFired,
		CascadeFired:     newState.CascadeFired,
		DebtCeilingFired: newState.DebtCeilingFired,
		Solvency:         solvency,
		ZombieCount:      len(zombies),
	}
	m.Finalize()

	telemetry.Run().ObserveBlock(e.cfg.ScenarioID, e.cfg.RunID, e.liquidator.Mode().String(), len(outcomes), badDebt, m.PegDeviation, solvency)
	if newState.TwapDeviationFired {
		telemetry.Run().RecordBreaker(e.cfg.ScenarioID, e.cfg.RunID, "twap_deviation")
	}
	if newState.CascadeFired {
		telemetry.Run().RecordBreaker(e.cfg.ScenarioID, e.cfg.RunID, "cascade")
	}
	if newState.DebtCeilingFired {
		telemetry.Run().RecordBreaker(e.cfg.ScenarioID, e.cfg.RunID, "debt_ceiling")
	}

	if newState.AnyFired() {
		e.log.Warn("circuit breaker fired",
			"block", block,
			"twap_deviation", newState.TwapDeviationFired,
			"cascade", newState.CascadeFired,
			"debt_ceiling", newState.DebtCeilingFired,
		)
	}
	if badDebt > 0 {
		e.log.Warn("bad debt realized", "block", block, "amount", badDebt)
	}

	return m, nil
}

// dispatchAgents runs every agent in fixed registration order, building a
// fresh View for each (later agents in the same block see the effects of
// earlier ones) and applying the returned ops against the pool/registry.
func (e *Engine) dispatchAgents(block uint64, pExt float64) {
	for _, a := range e.agents {
		view := e.buildView(block, pExt)
		ops := a.Act(view)
		for _, op := range ops {
			if err := e.applyOp(a.ID(), op, block); err != nil {
				e.log.Debug("agent op rejected", "agent", a.ID(), "op", op.Kind.String(), "err", err)
			}
		}
	}
}

func (e *Engine) buildView(block uint64, pExt float64) agent.View {
	spot, _ := e.pool.SpotPrice()
	twap, _ := e.pool.TWAP(e.cfg.TwapWindow)

	ids := e.registry.IDs()
	snaps := make([]agent.VaultSnapshot, 0, len(ids))
	for _, id := range ids {
		v, ok := e.registry.Get(id)
		if !ok {
			continue
		}
		snaps = append(snaps, agent.VaultSnapshot{ID: v.ID, Owner: v.Owner, Collateral: v.Collateral, Debt: v.Debt})
	}

	return agent.View{
		Block:             block,
		ExternalPrice:     pExt,
		SpotPrice:         spot,
		TwapPrice:         twap,
		ReserveX:          e.pool.X,
		ReserveY:          e.pool.Y,
		SwapFee:           e.pool.Fee,
		RedemptionPrice:   e.ctrl.RedemptionPrice(),
		RedemptionRate:    e.ctrl.RedemptionRate(),
		Vaults:            snaps,
		RMin:              e.cfg.RMin,
		DFloor:            e.cfg.DFloor,
		OpenPaused:        e.breakers.IsPaused("open"),
		BorrowPaused:      e.breakers.IsPaused("borrow"),
		LiquidationPaused: e.breakers.IsPaused("liquidation"),
	}
}

// applyOp interprets one intended operation against the engine's owned
// state, gating opens/borrows through the breaker bank. Errors are
// expected in normal operation (an agent's precondition check can be
// stale by the time its op applies) and are never treated as a run
// failure; the caller logs them at Debug level.
func (e *Engine) applyOp(owner string, op agent.Op, block uint64) error {
	switch op.Kind {
	case agent.SwapXToY:
		_, err := e.pool.SwapXForY(op.Amount)
		return err
	case agent.SwapYToX:
		_, err := e.pool.SwapYForX(op.Amount)
		return err
	case agent.OpenVault:
		if err := breaker.Guard(e.breakers, "open"); err != nil {
			return err
		}
		twap, err := e.pool.TWAP(e.cfg.TwapWindow)
		if err != nil {
			return err
		}
		_, err = e.registry.Open(owner, op.Amount, op.Amount2, block, twap)
		return err
	case agent.Deposit:
		return e.registry.Deposit(op.VaultID, op.Amount, block)
	case agent.Withdraw:
		twap, err := e.pool.TWAP(e.cfg.TwapWindow)
		if err != nil {
			return err
		}
		return e.registry.Withdraw(op.VaultID, op.Amount, block, twap)
	case agent.Borrow:
		if err := breaker.Guard(e.breakers, "borrow"); err != nil {
			return err
		}
		twap, err := e.pool.TWAP(e.cfg.TwapWindow)
		if err != nil {
			return err
		}
		return e.registry.Borrow(op.VaultID, op.Amount, block, twap)
	case agent.Repay:
		return e.registry.Repay(op.VaultID, op.Amount, block)
	case agent.AddLiquidity:
		_, err := e.pool.AddLiquidity(op.Amount, op.Amount2, 0.01)
		return err
	case agent.RemoveLiquidity:
		_, _, err := e.pool.RemoveLiquidity(op.Amount)
		return err
	case agent.SelfLiquidate:
		out, err := e.liquidator.SelfLiquidate(e.registry, e.pool, op.VaultID)
		if err != nil {
			return err
		}
		e.selfLiqOutcomes = append(e.selfLiqOutcomes, out)
		return nil
	default:
		return nil
	}
}
