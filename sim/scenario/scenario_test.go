package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laundrysim/laundrysim/sim"
	"github.com/laundrysim/laundrysim/sim/analysis"
)

func TestMain(m *testing.M) {
	logrus.SetLevel(logrus.ErrorLevel)
	os.Exit(m.Run())
}

func smallConfig() *sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Regional.Dwellings = 20000
	cfg.Simulation.DurationDays = 3
	return cfg
}

func TestRun_ProducesCompleteReport(t *testing.T) {
	// GIVEN a small valid scenario
	n := Named{Name: "base", Config: smallConfig()}

	// WHEN run end to end
	rep, err := Run(context.Background(), n)

	// THEN every stage contributed to the report
	require.NoError(t, err)
	assert.Equal(t, "base", rep.Name)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, rep.RunID, rep.Result.RunID)
	assert.Positive(t, rep.Summary.TotalOrders)
	assert.Len(t, rep.Outcomes, rep.Summary.TotalOrders)
	assert.Len(t, rep.Utilization.Pools, len(sim.Pools))
	assert.Equal(t, analysis.MethodRoutes, rep.Utilization.Method)
	assert.Equal(t, rep.Summary.CompletedOrders, rep.Finance.DeliveredOrders)
	assert.Nil(t, rep.Halt)
}

func TestRun_InvalidConfig_ReturnsError(t *testing.T) {
	cfg := smallConfig()
	cfg.Simulation.DurationDays = 0

	_, err := Run(context.Background(), Named{Name: "broken", Config: cfg})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario broken")
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Named{Name: "late", Config: smallConfig()})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_WithMethodOverride(t *testing.T) {
	rep, err := Run(context.Background(), Named{Name: "ledger", Config: smallConfig()}, WithMethod(analysis.MethodLedger))
	require.NoError(t, err)
	assert.Equal(t, analysis.MethodLedger, rep.Utilization.Method)
}

func TestRunAll_PresetsInInputOrderAndScaledDemand(t *testing.T) {
	// GIVEN the three demand presets of one base config
	runs := Presets(smallConfig())

	// WHEN run concurrently
	reports, err := RunAll(context.Background(), runs)

	// THEN reports follow input order and volume follows the scenario multiplier
	require.NoError(t, err)
	require.Len(t, reports, 3)
	for i, s := range sim.Scenarios {
		assert.Equal(t, string(s), reports[i].Name)
		assert.Equal(t, s, reports[i].Scenario)
	}
	assert.Less(t, reports[0].Summary.TotalOrders, reports[1].Summary.TotalOrders)
	assert.Less(t, reports[1].Summary.TotalOrders, reports[2].Summary.TotalOrders)
}

func TestRunAll_DeterministicAcrossRuns(t *testing.T) {
	runs := Presets(smallConfig())

	a, err := RunAll(context.Background(), runs, WithParallelism(2))
	require.NoError(t, err)
	b, err := RunAll(context.Background(), runs)
	require.NoError(t, err)

	for i := range a {
		assert.Equal(t, a[i].Summary.TotalOrders, b[i].Summary.TotalOrders)
		assert.Equal(t, a[i].Summary.CompletedOrders, b[i].Summary.CompletedOrders)
		assert.Equal(t, a[i].Summary.QueueEvents, b[i].Summary.QueueEvents)
		assert.Equal(t, a[i].Outcomes, b[i].Outcomes)
		assert.InDelta(t, a[i].Finance.Revenue, b[i].Finance.Revenue, 1e-9)
		assert.NotEqual(t, a[i].RunID, b[i].RunID)
	}
}

func TestRunAll_OneInvalidScenario_FailsTheBatch(t *testing.T) {
	bad := smallConfig()
	bad.Capacity.OperatingHoursPerDay = 0
	runs := []Named{{Name: "ok", Config: smallConfig()}, {Name: "bad", Config: bad}}

	reports, err := RunAll(context.Background(), runs)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario bad")
	assert.Nil(t, reports)
}

func TestRunAll_WithMetricsDir_WritesOneFilePerScenario(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "metrics")

	reports, err := RunAll(context.Background(), Presets(smallConfig()), WithMetricsDir(dir))
	require.NoError(t, err)

	for _, rep := range reports {
		data, err := os.ReadFile(filepath.Join(dir, rep.Name+".prom"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `run_id="`+rep.RunID+`"`)
		assert.Contains(t, string(data), "laundrysim_pool_utilization_percent")
	}
}

func TestPreset_DoesNotModifyBase(t *testing.T) {
	base := smallConfig()
	p := Preset(base, sim.ScenarioOptimistic)

	assert.Equal(t, sim.ScenarioOptimistic, p.Randomization.DemandScenario)
	assert.Equal(t, sim.ScenarioRealistic, base.Randomization.DemandScenario)
	assert.Equal(t, base.Capacity, p.Capacity)
}
