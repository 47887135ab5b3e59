package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/laundrysim/laundrysim/sim/scenario"
)

// compareCmd runs the pessimistic, realistic and optimistic variants of one config side by side
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run all three demand scenarios concurrently and compare them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(configPath)
		if err != nil {
			return err
		}
		applyOverrides(cmd, cfg)

		startTime := time.Now()
		reports, err := scenario.RunAll(context.Background(), scenario.Presets(cfg), runOptions()...)
		if err != nil {
			return err
		}
		logrus.Infof("compared %d scenarios in %v", len(reports), time.Since(startTime))

		printComparison(cmd.OutOrStdout(), reports)
		if resultsPath != "" {
			return writeResults(resultsPath, reports)
		}
		return nil
	},
}
