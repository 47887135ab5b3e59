// Package scenario runs the full pipeline (generate, simulate, analyze, price) for one or
// more named configurations. Independent scenarios run concurrently; each run owns its
// ledger, RNG and order set, so nothing is shared between goroutines.
package scenario

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/laundrysim/laundrysim/sim"
	"github.com/laundrysim/laundrysim/sim/analysis"
	"github.com/laundrysim/laundrysim/sim/demand"
	"github.com/laundrysim/laundrysim/sim/finance"
	"github.com/laundrysim/laundrysim/sim/telemetry"
)

// Named pairs a scenario label with its configuration.
type Named struct {
	Name   string
	Config *sim.Config
}

// Report is everything produced for one scenario.
type Report struct {
	Name         string                `yaml:"name"`
	RunID        string                `yaml:"run_id"`
	Scenario     sim.DemandScenario    `yaml:"demand_scenario"`
	Seed         int64                 `yaml:"seed"`
	Summary      *analysis.Summary     `yaml:"summary"`
	Utilization  *analysis.Utilization `yaml:"utilization"`
	ServiceLevel analysis.ServiceLevel `yaml:"service_level"`
	Finance      *finance.Report       `yaml:"finance"`
	Halt         *sim.Halt             `yaml:"halt,omitempty"`

	Result   *sim.Result        `yaml:"-"`
	Outcomes []analysis.Outcome `yaml:"-"`
}

type options struct {
	metricsDir  string
	parallelism int
	method      analysis.Method
}

// Option customizes Run and RunAll.
type Option func(*options)

// WithMetricsDir writes a Prometheus textfile <dir>/<name>.prom for every run.
func WithMetricsDir(dir string) Option {
	return func(o *options) { o.metricsDir = dir }
}

// WithParallelism bounds how many scenarios RunAll simulates at once. Zero or less means no limit.
func WithParallelism(n int) Option {
	return func(o *options) { o.parallelism = n }
}

// WithMethod overrides the configured utilization method.
func WithMethod(m analysis.Method) Option {
	return func(o *options) { o.method = m }
}

// Preset derives a demand-scenario variant of base. base is not modified.
func Preset(base *sim.Config, s sim.DemandScenario) *sim.Config {
	cfg := *base
	cfg.Randomization.DemandScenario = s
	return &cfg
}

// Presets returns the pessimistic, realistic and optimistic variants of base.
func Presets(base *sim.Config) []Named {
	out := make([]Named, 0, len(sim.Scenarios))
	for _, s := range sim.Scenarios {
		out = append(out, Named{Name: string(s), Config: Preset(base, s)})
	}
	return out
}

// Run executes one scenario end to end.
func Run(ctx context.Context, n Named, opts ...Option) (*Report, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return run(ctx, n, o)
}

func run(ctx context.Context, n Named, o *options) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := n.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", n.Name, err)
	}

	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Randomization.Seed))
	orders := demand.Generate(cfg, rng)

	runID := uuid.NewString()
	simOpts := []sim.Option{sim.WithRunID(runID)}
	var collector *telemetry.Collector
	if o.metricsDir != "" {
		c, err := telemetry.NewCollector(runID)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", n.Name, err)
		}
		collector = c
		simOpts = append(simOpts, sim.WithObserver(c))
	}
	res := sim.NewSimulator(cfg, orders, rng, simOpts...).Run()

	method := o.method
	if method == "" {
		method = analysis.Method(cfg.Analysis.UtilizationMethod)
	}
	util, err := analysis.Analyze(res, cfg, method)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", n.Name, err)
	}
	outcomes := analysis.ApplyOutcomes(res.Orders, cfg.Randomization.RefundRate,
		cfg.Randomization.FailedDeliveryRate, rng.ForSubsystem(sim.SubsystemOutcomes))

	rep := &Report{
		Name:         n.Name,
		RunID:        res.RunID,
		Scenario:     cfg.Randomization.DemandScenario,
		Seed:         cfg.Randomization.Seed,
		Summary:      analysis.Summarize(res),
		Utilization:  util,
		ServiceLevel: analysis.NewServiceLevel(res.Orders, outcomes),
		Finance:      finance.Evaluate(res.Orders, outcomes, cfg),
		Halt:         res.Halt,
		Result:       res,
		Outcomes:     outcomes,
	}

	if collector != nil {
		collector.ObserveUtilization(util)
		if err := os.MkdirAll(o.metricsDir, 0o755); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", n.Name, err)
		}
		if err := collector.WriteTextfile(filepath.Join(o.metricsDir, n.Name+".prom")); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", n.Name, err)
		}
	}

	logrus.Infof("[%s] %d/%d orders delivered, primary bottleneck %q", n.Name,
		rep.Summary.CompletedOrders, rep.Summary.TotalOrders, util.Primary)
	return rep, nil
}

// RunAll executes independent scenarios concurrently and returns reports in input order.
// The first failure cancels scenarios that have not started yet.
func RunAll(ctx context.Context, runs []Named, opts ...Option) ([]*Report, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	reports := make([]*Report, len(runs))
	g, ctx := errgroup.WithContext(ctx)
	if o.parallelism > 0 {
		g.SetLimit(o.parallelism)
	}
	for i, n := range runs {
		i, n := i, n
		g.Go(func() error {
			rep, err := run(ctx, n, o)
			if err != nil {
				return err
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
