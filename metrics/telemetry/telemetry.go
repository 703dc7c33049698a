// Package telemetry wraps an in-process prometheus registry for simulation
// KPIs. It is never served over HTTP (spec.md §1 excludes network
// transport); the driver reads the registry back via Gather after a run,
// the same in-process read path a dashboard scrape would use, and folds
// the counts into a RunSummary.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type runMetrics struct {
	registry *prometheus.Registry

	blocksProcessed *prometheus.CounterVec
	liquidations    *prometheus.CounterVec
	badDebt         *prometheus.CounterVec
	breakerFires    *prometheus.CounterVec
	pegDeviation    *prometheus.HistogramVec
	solvency        *prometheus.GaugeVec
}

var (
	runMetricsOnce sync.Once
	runRegistry    *runMetrics
)

// Run returns the lazily-initialized, process-wide registry of simulation
// run metrics. It owns a private prometheus.Registry rather than the
// global default so Gather only ever returns flatsim's own series.
func Run() *runMetrics {
	runMetricsOnce.Do(func() {
		runRegistry = &runMetrics{
			registry: prometheus.NewRegistry(),
			blocksProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "flatsim",
				Subsystem: "engine",
				Name:      "blocks_processed_total",
				Help:      "Total simulated blocks processed, segmented by scenario and run id.",
			}, []string{"scenario", "run_id"}),
			liquidations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "flatsim",
				Subsystem: "liquidation",
				Name:      "executions_total",
				Help:      "Total liquidations executed, segmented by scenario, run id, and mode.",
			}, []string{"scenario", "run_id", "mode"}),
			badDebt: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "flatsim",
				Subsystem: "liquidation",
				Name:      "bad_debt_total",
				Help:      "Cumulative bad debt realized, segmented by scenario and run id.",
			}, []string{"scenario", "run_id"}),
			breakerFires: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "flatsim",
				Subsystem: "breaker",
				Name:      "fires_total",
				Help:      "Total breaker trips, segmented by scenario, run id, and breaker name.",
			}, []string{"scenario", "run_id", "breaker"}),
			pegDeviation: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "flatsim",
				Subsystem: "engine",
				Name:      "peg_deviation_ratio",
				Help:      "Per-block peg deviation distribution, segmented by scenario and run id.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5},
			}, []string{"scenario", "run_id"}),
			solvency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "flatsim",
				Subsystem: "engine",
				Name:      "solvency_ratio",
				Help:      "Most recent system solvency ratio (sum collateral value / sum debt), segmented by scenario and run id.",
			}, []string{"scenario", "run_id"}),
		}
		runRegistry.registry.MustRegister(
			runRegistry.blocksProcessed,
			runRegistry.liquidations,
			runRegistry.badDebt,
			runRegistry.breakerFires,
			runRegistry.pegDeviation,
			runRegistry.solvency,
		)
	})
	return runRegistry
}

// ObserveBlock records one processed block's KPIs against the scenario and
// run id labels.
func (m *runMetrics) ObserveBlock(scenario, runID string, liquidationMode string, liquidationCount int, badDebt float64, pegDeviation, solvency float64) {
	if m == nil {
		return
	}
	m.blocksProcessed.WithLabelValues(scenario, runID).Inc()
	if liquidationCount > 0 {
		m.liquidations.WithLabelValues(scenario, runID, liquidationMode).Add(float64(liquidationCount))
	}
	if badDebt > 0 {
		m.badDebt.WithLabelValues(scenario, runID).Add(badDebt)
	}
	m.pegDeviation.WithLabelValues(scenario, runID).Observe(pegDeviation)
	m.solvency.WithLabelValues(scenario, runID).Set(solvency)
}

// RecordBreaker increments the fire counter for a named breaker.
func (m *runMetrics) RecordBreaker(scenario, runID, breaker string) {
	if m == nil {
		return
	}
	m.breakerFires.WithLabelValues(scenario, runID, breaker).Inc()
}

// Snapshot is the run-scoped read-back of this package's counters/gauge,
// folded into a metrics.RunSummary by the driver once a run completes.
type Snapshot struct {
	BlocksProcessed float64
	Liquidations    float64
	BadDebt         float64
	BreakerFires    float64
	Solvency        float64
}

// Snapshot gathers the registry and sums every series labeled with the
// given scenario and run id, the same read path a scrape would take.
func (m *runMetrics) Snapshot(scenario, runID string) Snapshot {
	var s Snapshot
	if m == nil {
		return s
	}
	families, err := m.registry.Gather()
	if err != nil {
		return s
	}
	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			if !labelsMatch(metric, scenario, runID) {
				continue
			}
			switch fam.GetName() {
			case "flatsim_engine_blocks_processed_total":
				s.BlocksProcessed += metric.GetCounter().GetValue()
			case "flatsim_liquidation_executions_total":
				s.Liquidations += metric.GetCounter().GetValue()
			case "flatsim_liquidation_bad_debt_total":
				s.BadDebt += metric.GetCounter().GetValue()
			case "flatsim_breaker_fires_total":
				s.BreakerFires += metric.GetCounter().GetValue()
			case "flatsim_engine_solvency_ratio":
				s.Solvency = metric.GetGauge().GetValue()
			}
		}
	}
	return s
}

// labelsMatch reports whether metric carries the given scenario and run_id
// label values; other label pairs (e.g. liquidation mode, breaker name) are
// irrelevant to matching and are ignored.
func labelsMatch(metric *dto.Metric, scenario, runID string) bool {
	var gotScenario, gotRunID string
	for _, lp := range metric.GetLabel() {
		switch lp.GetName() {
		case "scenario":
			gotScenario = lp.GetValue()
		case "run_id":
			gotRunID = lp.GetValue()
		}
	}
	return gotScenario == scenario && gotRunID == runID
}
