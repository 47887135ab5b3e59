package demand

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laundrysim/laundrysim/sim"
)

func exampleConfig() *sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Regional.Dwellings = 50000
	cfg.Randomization.DemandScenario = sim.ScenarioRealistic
	cfg.Pricing.WashPrice = 7
	cfg.Pricing.DryPrice = 8
	cfg.Simulation.DurationDays = 7
	cfg.Randomization.Seed = 42
	return cfg
}

func seeded(cfg *sim.Config) *sim.PartitionedRNG {
	return sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Randomization.Seed))
}

func generateExample() []*sim.Order {
	cfg := exampleConfig()
	return Generate(cfg, seeded(cfg))
}

func TestGenerate_ExampleScenario_FewHundredOrders(t *testing.T) {
	// GIVEN the reference scenario (50k dwellings, realistic, price 15, 7 days, seed 42)
	cfg := exampleConfig()

	// WHEN generating orders
	orders := Generate(cfg, seeded(cfg))

	// THEN the count is in the few-hundreds range and matches the closed-form count
	assert.Equal(t, OrderCount(cfg), len(orders))
	assert.GreaterOrEqual(t, len(orders), 100)
	assert.Less(t, len(orders), 1000)
}

func TestGenerate_ServiceMix_ApproximatelySeventyTwentyTen(t *testing.T) {
	cfg := exampleConfig()
	cfg.Regional.Dwellings = 200000 // ~2000 orders for a tight tolerance

	orders := Generate(cfg, seeded(cfg))
	require.NotEmpty(t, orders)

	counts := map[sim.ServiceType]int{}
	for _, o := range orders {
		counts[o.Service]++
	}
	n := float64(len(orders))
	assert.InDelta(t, 0.70, float64(counts[sim.ServiceWashDry])/n, 0.05)
	assert.InDelta(t, 0.20, float64(counts[sim.ServiceWashOnly])/n, 0.05)
	assert.InDelta(t, 0.10, float64(counts[sim.ServiceDryOnly])/n, 0.05)
}

func TestGenerate_WeightAndComplexity_Clamped(t *testing.T) {
	cfg := exampleConfig()
	cfg.Regional.Dwellings = 200000

	for _, o := range Generate(cfg, seeded(cfg)) {
		if o.WeightKg < 2 || o.WeightKg > 15 {
			t.Fatalf("%s weight %.2f outside [2,15]", o.ID, o.WeightKg)
		}
		if math.Abs(o.WeightKg*10-math.Round(o.WeightKg*10)) > 1e-9 {
			t.Fatalf("%s weight %.4f not rounded to one decimal", o.ID, o.WeightKg)
		}
		if o.Complexity < 0.8 || o.Complexity > 1.2 {
			t.Fatalf("%s complexity %.3f outside [0.8,1.2]", o.ID, o.Complexity)
		}
	}
}

func TestGenerate_SortedWithSequentialIDs(t *testing.T) {
	orders := generateExample()

	for i, o := range orders {
		if o.ID != fmt.Sprintf("order_%d", i) {
			t.Errorf("order %d: ID = %q", i, o.ID)
			break
		}
		if i > 0 && o.PlacedAt < orders[i-1].PlacedAt {
			t.Errorf("orders not sorted at %d", i)
			break
		}
		if o.Status != sim.StatusPlaced {
			t.Errorf("order %d: status %s, want placed", i, o.Status)
			break
		}
	}
}

func TestGenerate_Determinism_SameSeedIdenticalOrders(t *testing.T) {
	a := generateExample()
	b := generateExample()

	require.Equal(t, len(a), len(b))
	for i := range a {
		require.Equal(t, *a[i], *b[i], "order %d differs", i)
	}
}

func TestGenerate_DifferentSeed_DifferentOrders(t *testing.T) {
	cfg := exampleConfig()
	a := Generate(cfg, seeded(cfg))
	cfg.Randomization.Seed = 43
	b := Generate(cfg, seeded(cfg))

	require.Equal(t, len(a), len(b), "count depends only on the demand formula")
	same := 0
	for i := range a {
		if a[i].PlacedAt == b[i].PlacedAt {
			same++
		}
	}
	assert.Less(t, same, len(a)/2)
}

func TestGenerate_DemandScaling_DoublingDwellingsDoublesOrders(t *testing.T) {
	cfg := exampleConfig()
	cfg.Regional.Dwellings = 100000
	n1 := len(Generate(cfg, seeded(cfg)))
	cfg.Regional.Dwellings = 200000
	n2 := len(Generate(cfg, seeded(cfg)))

	require.GreaterOrEqual(t, n1, 500)
	ratio := float64(n2) / float64(n1)
	assert.InDelta(t, 2.0, ratio, 0.1)
}

func TestGenerate_PreferredWindows_SlotAlignedAndAfterPlacement(t *testing.T) {
	cfg := exampleConfig()
	slot := int64(cfg.Simulation.TimeSlotHours * 3600)

	for _, o := range Generate(cfg, seeded(cfg)) {
		require.Zero(t, o.PreferredPickupAt%slot, "%s pickup not on a slot boundary", o.ID)
		require.Zero(t, o.PreferredDeliveryAt%slot, "%s delivery not on a slot boundary", o.ID)
		require.GreaterOrEqual(t, o.PreferredPickupAt-o.PlacedAt, 23*sim.TicksPerHour, o.ID)
		require.LessOrEqual(t, o.PreferredPickupAt-o.PlacedAt, 49*sim.TicksPerHour, o.ID)
		gap := o.PreferredDeliveryAt - o.PreferredPickupAt
		require.GreaterOrEqual(t, gap, 23*sim.TicksPerHour, o.ID)
		require.LessOrEqual(t, gap, 73*sim.TicksPerHour, o.ID)
	}
}

func TestGenerate_Placement_WithinServiceHoursAndBiasedToPeak(t *testing.T) {
	cfg := exampleConfig()
	cfg.Regional.Dwellings = 200000
	cfg.Randomization.PeakStartHour = 17
	cfg.Randomization.PeakEndHour = 20
	cfg.Randomization.PeakMultiplier = 2

	orders := Generate(cfg, seeded(cfg))
	inPeak := 0
	for _, o := range orders {
		secs := o.PlacedAt % sim.TicksPerDay
		hour := float64(secs) / float64(sim.TicksPerHour)
		require.GreaterOrEqual(t, hour, 6.0)
		require.Less(t, hour, 23.0)
		require.Less(t, o.PlacedAt, cfg.HorizonTicks())
		if hour >= 17 && hour < 20 {
			inPeak++
		}
	}
	// P(peak) = m/(m+1) = 2/3
	assert.InDelta(t, 2.0/3.0, float64(inPeak)/float64(len(orders)), 0.05)
}

func TestGenerate_SelfCheckScaledBySubscription(t *testing.T) {
	cfg := exampleConfig()
	cfg.Regional.Dwellings = 400000
	cfg.Elasticity.SubscriptionRatio = 0.5
	cfg.Elasticity.SelfCheckAdoption = 0.4

	var subs, subsCheck, plain, plainCheck int
	for _, o := range Generate(cfg, seeded(cfg)) {
		if o.Subscribed {
			subs++
			if o.SelfCheck {
				subsCheck++
			}
		} else {
			plain++
			if o.SelfCheck {
				plainCheck++
			}
		}
	}
	assert.InDelta(t, 0.5, float64(subs)/float64(subs+plain), 0.05)
	assert.InDelta(t, 0.6, float64(subsCheck)/float64(subs), 0.05)   // 0.4 × 1.5
	assert.InDelta(t, 0.28, float64(plainCheck)/float64(plain), 0.05) // 0.4 × 0.7
}

func TestGenerate_LocationsNearClusterCenters(t *testing.T) {
	cfg := exampleConfig()
	cfg.Regional.Density = sim.DensityUrban
	centers := ClusterCenters(cfg)
	sd := 0.008 * 0.3

	for _, o := range Generate(cfg, seeded(cfg)) {
		require.GreaterOrEqual(t, o.Cluster, 0)
		require.Less(t, o.Cluster, NumClusters)
		c := centers[o.Cluster]
		// 6 standard deviations is effectively never exceeded for a few hundred draws
		require.Less(t, math.Abs(o.Lat-c.Lat), 6*sd, o.ID)
		require.Less(t, math.Abs(o.Lon-c.Lon), 6*sd, o.ID)
		require.Equal(t, cfg.Regional.ParkingDifficulty, o.ParkingDifficulty)
	}
}

func TestGenerate_ZeroDwellings_EmptyResult(t *testing.T) {
	cfg := exampleConfig()
	cfg.Regional.Dwellings = 0

	orders := Generate(cfg, seeded(cfg))

	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}

func TestDailyVolume_ScenarioAndElasticity(t *testing.T) {
	cfg := exampleConfig()
	cfg.Regional.Dwellings = 70000
	cfg.Regional.WeeklyPenetrationRate = 0.01

	// realistic at reference price: 70000 × 0.01 / 7 = 100
	assert.InDelta(t, 100.0, DailyVolume(cfg), 1e-9)

	cfg.Randomization.DemandScenario = sim.ScenarioPessimistic
	assert.InDelta(t, 60.0, DailyVolume(cfg), 1e-9)
	cfg.Randomization.DemandScenario = sim.ScenarioOptimistic
	assert.InDelta(t, 150.0, DailyVolume(cfg), 1e-9)

	// doubling the price with elasticity 1 halves the volume
	cfg.Randomization.DemandScenario = sim.ScenarioRealistic
	cfg.Elasticity.PriceElasticity = 1
	cfg.Pricing.WashPrice = 14
	cfg.Pricing.DryPrice = 16
	assert.InDelta(t, 50.0, DailyVolume(cfg), 1e-9)
}
