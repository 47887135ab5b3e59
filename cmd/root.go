package cmd

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/laundrysim/laundrysim/sim/analysis"
	"github.com/laundrysim/laundrysim/sim/scenario"
)

var (
	configPath        string // Scenario YAML; empty uses built-in defaults
	seed              int64  // Seed override for demand, traffic jitter and outcomes
	demandScenario    string // Demand scenario override (pessimistic, realistic, optimistic)
	durationDays      int    // Horizon override in days
	logLevel          string // Log verbosity level
	utilizationMethod string // Utilization method override (routes, ledger)
	resultsPath       string // Optional YAML results file
	metricsDir        string // Optional directory for Prometheus textfiles
	parallelism       int    // Max concurrent scenarios for compare
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "laundrysim",
	Short: "Discrete-event simulator for laundry pickup and delivery operations",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
}

// runCmd executes one scenario using the config file and flag overrides
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single laundry-delivery simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(configPath)
		if err != nil {
			return err
		}
		applyOverrides(cmd, cfg)

		logrus.Infof("Starting simulation: %d dwellings, %s demand, %d days, seed %d",
			cfg.Regional.Dwellings, cfg.Randomization.DemandScenario, cfg.Simulation.DurationDays, cfg.Randomization.Seed)
		startTime := time.Now()

		rep, err := scenario.Run(context.Background(), scenario.Named{Name: string(cfg.Randomization.DemandScenario), Config: cfg},
			runOptions()...)
		if err != nil {
			return err
		}

		printReport(cmd.OutOrStdout(), rep, time.Since(startTime))
		if resultsPath != "" {
			if err := writeResults(resultsPath, []*scenario.Report{rep}); err != nil {
				return err
			}
		}
		logrus.Info("Simulation complete.")
		return nil
	},
}

func runOptions() []scenario.Option {
	var opts []scenario.Option
	if utilizationMethod != "" {
		opts = append(opts, scenario.WithMethod(analysis.Method(utilizationMethod)))
	}
	if metricsDir != "" {
		opts = append(opts, scenario.WithMetricsDir(metricsDir))
	}
	if parallelism > 0 {
		opts = append(opts, scenario.WithParallelism(parallelism))
	}
	return opts
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerScenarioFlags adds the config and override flags shared by run and compare.
func registerScenarioFlags(c *cobra.Command) {
	c.Flags().StringVar(&configPath, "config", "", "Scenario YAML file (defaults are used for absent fields)")
	c.Flags().Int64Var(&seed, "seed", 42, "Seed for demand generation, traffic jitter and outcomes")
	c.Flags().IntVar(&durationDays, "days", 7, "Simulated days of order placement")
	c.Flags().StringVar(&utilizationMethod, "utilization", "", "Utilization method (routes, ledger); default from config")
	c.Flags().StringVar(&resultsPath, "results-path", "", "Write the report(s) as YAML to this file")
	c.Flags().StringVar(&metricsDir, "metrics-dir", "", "Write one Prometheus textfile per scenario to this directory")
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	registerScenarioFlags(runCmd)
	runCmd.Flags().StringVar(&demandScenario, "scenario", "realistic", "Demand scenario (pessimistic, realistic, optimistic)")

	registerScenarioFlags(compareCmd)
	compareCmd.Flags().IntVar(&parallelism, "parallelism", 0, "Max scenarios simulated at once (0 = all)")

	validateCmd.Flags().StringVar(&configPath, "config", "", "Scenario YAML file to validate")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(validateCmd)
}
