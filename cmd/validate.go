package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd checks a scenario file without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a scenario configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "config OK: %s demand, %d days, %d vans / %d drivers / %d washers / %d dryers\n",
			cfg.Randomization.DemandScenario, cfg.Simulation.DurationDays,
			cfg.Capacity.Vans, cfg.Capacity.Drivers, cfg.Capacity.WashMachines, cfg.Capacity.DryMachines)
		return nil
	},
}
