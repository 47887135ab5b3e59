package cmd

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/laundrysim/laundrysim/sim/analysis"
	"github.com/laundrysim/laundrysim/sim/scenario"
)

// resultsFile is the top-level layout of --results-path.
type resultsFile struct {
	GeneratedAt time.Time          `yaml:"generated_at"`
	Reports     []*scenario.Report `yaml:"reports"`
}

// printReport displays one scenario's results at the end of a run.
func printReport(w io.Writer, rep *scenario.Report, elapsed time.Duration) {
	s := rep.Summary
	fmt.Fprintf(w, "=== Simulation Results (%s) ===\n", rep.Name)
	fmt.Fprintf(w, "Run ID               : %s\n", rep.RunID)
	fmt.Fprintf(w, "Orders               : %d placed, %d delivered, %d stalled, %d in flight\n",
		s.TotalOrders, s.CompletedOrders, s.StalledOrders, s.InFlightOrders)
	fmt.Fprintf(w, "Completion Rate      : %s\n", percent(s.CompletionRate))
	fmt.Fprintf(w, "Avg / Median Hours   : %s / %s\n", number(s.AvgTotalHours), number(s.MedianHours))
	fmt.Fprintf(w, "Queue Events         : %d (%d orders, mean wait %s h)\n",
		s.QueueEvents, s.QueuedOrders, number(s.MeanQueueDelayHours))
	if rep.Halt != nil {
		fmt.Fprintf(w, "HALTED               : %v\n", rep.Halt)
	}

	printUtilization(w, rep.Utilization)

	sl := rep.ServiceLevel
	fmt.Fprintln(w, "=== Service Level ===")
	fmt.Fprintf(w, "Refund Rate          : %s (%d)\n", percent(sl.RefundRate), sl.Refunds)
	fmt.Fprintf(w, "Failed Deliveries    : %s (%d)\n", percent(sl.FailureRate), sl.Failures)

	f := rep.Finance
	fmt.Fprintln(w, "=== Finance ===")
	fmt.Fprintf(w, "Revenue              : %.2f\n", f.Revenue)
	fmt.Fprintf(w, "Variable Cost        : %.2f\n", f.VariableCost)
	fmt.Fprintf(w, "Contribution Margin  : %.2f (%s per order)\n", f.ContributionMargin, number(f.AvgMargin))
	fmt.Fprintf(w, "Weekly Profit        : %.2f after %.2f overhead\n", f.WeeklyProfit, f.WeeklyOverhead)
	if f.BreakEven.Reachable {
		fmt.Fprintf(w, "Break-even           : %.0f orders/week (currently %.1f)\n", f.BreakEven.OrdersPerWeek, f.OrdersPerWeek)
	} else {
		fmt.Fprintln(w, "Break-even           : unreachable (average margin not positive)")
	}
	fmt.Fprintf(w, "Wall Time            : %v\n", elapsed.Round(time.Millisecond))
}

func printUtilization(w io.Writer, u *analysis.Utilization) {
	fmt.Fprintf(w, "=== Utilization (%s) ===\n", u.Method)
	for _, p := range u.Pools {
		flag := ""
		switch {
		case p.Percent >= analysis.BottleneckThreshold:
			flag = "  BOTTLENECK"
		case p.Percent < analysis.UnderutilizedThreshold:
			flag = "  underutilized"
		}
		fmt.Fprintf(w, "%-7s %3d units  %8s%s\n", p.Pool, p.Size, percent(p.Percent/100), flag)
	}
	if u.Primary != "" {
		fmt.Fprintf(w, "Primary Bottleneck   : %s\n", u.Primary)
	}
}

// printComparison prints one row per scenario.
func printComparison(w io.Writer, reports []*scenario.Report) {
	fmt.Fprintf(w, "%-12s %7s %9s %10s %10s %12s %12s %s\n",
		"scenario", "orders", "complete", "avg hours", "queued", "margin/wk", "break-even", "bottleneck")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, r := range reports {
		be := "n/a"
		if r.Finance.BreakEven.Reachable {
			be = fmt.Sprintf("%.0f/wk", r.Finance.BreakEven.OrdersPerWeek)
		}
		primary := r.Utilization.Primary
		if primary == "" {
			primary = "-"
		}
		fmt.Fprintf(w, "%-12s %7d %9s %10s %10d %12.2f %12s %s\n",
			r.Name, r.Summary.TotalOrders, percent(r.Summary.CompletionRate), number(r.Summary.AvgTotalHours),
			r.Summary.QueueEvents, r.Finance.WeeklyMargin, be, primary)
	}
}

// writeResults saves reports as YAML.
func writeResults(path string, reports []*scenario.Report) error {
	data, err := yaml.Marshal(resultsFile{GeneratedAt: time.Now().UTC(), Reports: reports})
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}

// percent formats a fraction as a percentage; NaN prints as n/a.
func percent(f float64) string {
	switch {
	case math.IsNaN(f):
		return "n/a"
	case math.IsInf(f, 1):
		return "inf"
	}
	return fmt.Sprintf("%.1f%%", f*100)
}

func number(f float64) string {
	if math.IsNaN(f) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", f)
}
