package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/laundrysim/laundrysim/sim"
)

// resolveConfig loads the scenario file, or the built-in defaults when path is empty.
// Loading uses strict field checking: typos in the YAML cause errors.
func resolveConfig(path string) (*sim.Config, error) {
	if path == "" {
		logrus.Debug("no --config given, using built-in defaults")
		return sim.DefaultConfig(), nil
	}
	cfg, err := sim.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("loaded scenario config from %s", path)
	return cfg, nil
}

// applyOverrides copies explicitly set flags over the loaded config.
// Flags left at their defaults never overwrite values from the YAML file.
func applyOverrides(cmd *cobra.Command, cfg *sim.Config) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Randomization.Seed = seed
	}
	if flags.Changed("days") {
		cfg.Simulation.DurationDays = durationDays
	}
	if flags.Lookup("scenario") != nil && flags.Changed("scenario") {
		cfg.Randomization.DemandScenario = sim.DemandScenario(demandScenario)
	}
}
