// Package driver implements the batch-mode driver surface of spec.md §6:
// running a single scenario, sweeping a parameter grid, and Monte Carlo
// aggregation across seeds. Per spec.md §5, independent runs may execute
// in parallel since each owns its entire state; Sweep and MonteCarlo use a
// bounded worker pool for this.
package driver

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"flatsim/agent"
	"flatsim/agents"
	"flatsim/amm"
	"flatsim/breaker"
	"flatsim/config"
	"flatsim/controller"
	"flatsim/engine"
	"flatsim/liquidation"
	"flatsim/metrics"
	"flatsim/metrics/telemetry"
	"flatsim/observability/logging"
	"flatsim/scenario"
	"flatsim/vault"
)

// RunResult is the output of a single scenario run: the full BlockMetrics
// stream plus its run summary, addressed by a fresh run id.
type RunResult struct {
	RunID   string
	Blocks  []metrics.BlockMetrics
	Summary metrics.RunSummary
}

// RunScenario drives one scenario to completion from a Config, per
// spec.md §6: "Run a single scenario: input (scenario_id, config, seed,
// num_blocks, noise_params), output a sequence of BlockMetrics plus a run
// summary."
func RunScenario(cfg *config.Config) (RunResult, error) {
	runID := uuid.NewString()
	e, err := build(cfg, runID)
	if err != nil {
		return RunResult{}, err
	}

	blocks := make([]metrics.BlockMetrics, 0, cfg.Run.NumBlocks)
	for b := uint64(1); b <= cfg.Run.NumBlocks; b++ {
		m, err := e.Step(b)
		if err != nil {
			return RunResult{}, err
		}
		blocks = append(blocks, m)
	}

	th := metrics.Thresholds{
		BadDebt:          cfg.Thresholds.BadDebt,
		SoftPegDeviation: cfg.Thresholds.SoftPegDeviation,
		MaxPegDeviation:  cfg.Thresholds.MaxPegDeviation,
		CascadeFireLimit: cfg.Thresholds.CascadeFireLimit,
	}
	summary := metrics.Summarize(blocks, th)
	summary.Telemetry = telemetry.Run().Snapshot(cfg.Run.ScenarioID, runID)

	return RunResult{
		RunID:   runID,
		Blocks:  blocks,
		Summary: summary,
	}, nil
}

// build wires one Scenario Engine from a Config, resolving string mode
// fields to their closed enum values. runID labels the engine's logger and
// telemetry series so a sweep/Monte Carlo batch can tell concurrent runs
// apart.
func build(cfg *config.Config, runID string) (*engine.Engine, error) {
	gen, ok := scenario.Lookup(cfg.Run.ScenarioID)
	if !ok {
		return nil, ErrUnknownScenario
	}

	pool, err := amm.NewPool(cfg.Amm.ReserveX, cfg.Amm.ReserveY, cfg.Amm.SwapFee, 0, cfg.Vault.TwapWindow)
	if err != nil {
		return nil, err
	}

	reg := vault.NewRegistry(vault.Config{
		RMin:               cfg.Vault.RMin,
		DFloor:             cfg.Vault.DFloor,
		StabilityFeeAnnual: cfg.Vault.StabilityFeeAnnual,
		BlocksPerYear:      cfg.Vault.BlocksPerYear,
	})

	liqMode, err := liquidation.ParseMode(cfg.Liquidation.Mode)
	if err != nil {
		return nil, err
	}
	liq := liquidation.NewEngine(liquidation.Config{
		Mode:           liqMode,
		RMin:           cfg.Vault.RMin,
		Lambda:         cfg.Liquidation.Lambda,
		Kappa:          cfg.Liquidation.Kappa,
		KappaChallenge: cfg.Liquidation.KappaChallenge,
		AlphaLP:        cfg.Liquidation.AlphaLP,
		AlphaSelf:      cfg.Liquidation.AlphaSelf,
		Gamma:          cfg.Liquidation.Gamma,
		RFloor:         cfg.Liquidation.RFloor,
		Theta:          cfg.Liquidation.Theta,
		LMax:           cfg.Liquidation.LMax,
	})

	ctrlMode, err := controller.ParseMode(cfg.Controller.Mode)
	if err != nil {
		return nil, err
	}
	ctrl, err := controller.New(controller.Config{
		Mode: ctrlMode,
		Kp:   cfg.Controller.Kp,
		Ki:   cfg.Controller.Ki,
		S:    cfg.Controller.S,
		RMin: cfg.Controller.RateMin,
		RMax: cfg.Controller.RateMax,
		IMin: cfg.Controller.IntegralMin,
		IMax: cfg.Controller.IntegralMax,
	}, cfg.Controller.InitialPrice, 0)
	if err != nil {
		return nil, err
	}

	bank := breaker.NewBank(breaker.Config{
		TauTwap:             cfg.Breaker.TauTwap,
		LCascade:            cfg.Breaker.LCascade,
		DebtCeilingRatio:    cfg.Breaker.DebtCeilingRatio,
		SuspendLiquidations: cfg.Breaker.SuspendLiquidations,
	})

	// Seed one genesis vault for the CDPHolder agent to defend; a vault
	// comfortably above RMin so the holder starts safe and only tops up
	// once the scenario's price path erodes its margin.
	genesisSpot := cfg.Amm.ReserveY / cfg.Amm.ReserveX
	holderDebt := cfg.Vault.DFloor * 2
	holderCollateral := holderDebt * cfg.Vault.RMin * 1.3 / genesisSpot
	holderVaultID, err := reg.Open("cdp_holder", holderCollateral, holderDebt, 0, genesisSpot)
	if err != nil {
		return nil, err
	}

	roster := []agent.Agent{
		agents.NewArbitrageur("arbitrageur"),
		agents.NewDemandAgent("demand", cfg.Run.Seed),
		agents.NewMiner("miner", cfg.Run.Seed),
		agents.NewCDPHolder("cdp_holder", holderVaultID),
		agents.NewLP("lp", cfg.Run.Seed),
		agents.NewAttacker("attacker", cfg.Run.Seed),
	}

	logger := logging.Setup(cfg.Run.ScenarioID, runID)

	noise := scenario.NoiseParams{Sigma: cfg.Run.NoiseSigma, Shape: cfg.Run.NoiseShape}
	eng := engine.New(engine.Config{
		TwapWindow: cfg.Vault.TwapWindow,
		RMin:       cfg.Vault.RMin,
		DFloor:     cfg.Vault.DFloor,
		Noise:      noise,
		RunSeed:    cfg.Run.Seed,
		ScenarioID: cfg.Run.ScenarioID,
		RunID:      runID,
	}, pool, reg, liq, ctrl, bank, roster, gen, logger)
	return eng, nil
}

// Sweep runs the Cartesian product of scenario ids, seeds, and parameter
// grid cells over a bounded worker pool, each cell an independent run.
func Sweep(ctx context.Context, base *config.Config, spec config.SweepSpec, maxWorkers int) ([]RunResult, error) {
	cells := expandGrid(base, spec)

	results := make([]RunResult, len(cells))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for i, cell := range cells {
		i, cell := i, cell
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			res, err := RunScenario(cell)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// expandGrid materializes one Config per (scenario_id, seed, grid cell)
// combination, applying each grid override by dotted field path.
func expandGrid(base *config.Config, spec config.SweepSpec) []*config.Config {
	cells := []*config.Config{cloneConfig(base)}
	for field, values := range spec.Grid {
		next := make([]*config.Config, 0, len(cells)*len(values))
		for _, c := range cells {
			for _, v := range values {
				cc := cloneConfig(c)
				applyOverride(cc, field, v)
				next = append(next, cc)
			}
		}
		cells = next
	}

	out := make([]*config.Config, 0, len(cells)*len(spec.ScenarioID)*len(spec.Seeds))
	for _, c := range cells {
		for _, sid := range spec.ScenarioID {
			for _, seed := range spec.Seeds {
				cc := cloneConfig(c)
				cc.Run.ScenarioID = sid
				cc.Run.Seed = seed
				out = append(out, cc)
			}
		}
	}
	return out
}

func cloneConfig(c *config.Config) *config.Config {
	cp := *c
	return &cp
}

// applyOverride sets a single dotted-path numeric field (e.g. "vault.r_min")
// on a cloned config. Unknown paths are ignored, mirroring the grid's role
// as a best-effort sweep axis list rather than a strict schema.
func applyOverride(c *config.Config, field string, value float64) {
	switch field {
	case "vault.r_min":
		c.Vault.RMin = value
	case "vault.d_floor":
		c.Vault.DFloor = value
	case "vault.stability_fee_annual":
		c.Vault.StabilityFeeAnnual = value
	case "liquidation.lambda":
		c.Liquidation.Lambda = value
	case "liquidation.kappa":
		c.Liquidation.Kappa = value
	case "liquidation.gamma":
		c.Liquidation.Gamma = value
	case "liquidation.r_floor":
		c.Liquidation.RFloor = value
	case "controller.kp":
		c.Controller.Kp = value
	case "controller.ki":
		c.Controller.Ki = value
	case "breaker.tau_twap":
		c.Breaker.TauTwap = value
	case "breaker.debt_ceiling_ratio":
		c.Breaker.DebtCeilingRatio = value
	}
}

// MonteCarloSummary aggregates a KPI across N seeded runs: mean, standard
// deviation, and the 95th/99th percentiles, per spec.md §6.
type MonteCarloSummary struct {
	ScenarioID string
	Mean       float64
	StdDev     float64
	P95        float64
	P99        float64
}

// MonteCarlo runs NumSeeds seeds (offset by SeedOffset) for every scenario
// in spec.ScenarioID, over a bounded worker pool, and aggregates the mean
// peg deviation KPI per scenario.
func MonteCarlo(ctx context.Context, base *config.Config, spec config.MonteCarloSpec, maxWorkers int) ([]MonteCarloSummary, error) {
	summaries := make([]MonteCarloSummary, len(spec.ScenarioID))

	for si, sid := range spec.ScenarioID {
		results := make([]RunResult, spec.NumSeeds)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxWorkers)

		for i := uint64(0); i < spec.NumSeeds; i++ {
			i := i
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				cc := cloneConfig(base)
				cc.Run.ScenarioID = sid
				cc.Run.Seed = spec.SeedOffset + i
				res, err := RunScenario(cc)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		deviations := make([]float64, len(results))
		for i, r := range results {
			deviations[i] = r.Summary.MeanPegDeviation
		}
		summaries[si] = MonteCarloSummary{
			ScenarioID: sid,
			Mean:       mean(deviations),
			StdDev:     stddev(deviations),
			P95:        percentile(deviations, 0.95),
			P99:        percentile(deviations, 0.99),
		}
	}
	return summaries, nil
}
