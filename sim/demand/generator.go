// Package demand generates the synthetic order set for a simulation horizon.
// Generation is a pure function of the configuration and its seed.
package demand

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/laundrysim/laundrysim/sim"
	"github.com/laundrysim/laundrysim/sim/route"
)

const (
	// ReferencePrice is the combined wash+dry price at which elasticity has no effect.
	ReferencePrice = 15.0

	// NumClusters is the number of geographic order clusters.
	NumClusters = 5

	serviceStartHour = 6
	serviceEndHour   = 23

	locationNoiseDegrees = 0.008
	clusterOffsetDegrees = 0.03

	minWeightKg = 2.0
	maxWeightKg = 15.0
)

var serviceMix = NewCategorical(
	[]sim.ServiceType{sim.ServiceWashDry, sim.ServiceWashOnly, sim.ServiceDryOnly},
	[]float64{0.70, 0.20, 0.10},
)

// sizeClass is one laundry-bag size category.
type sizeClass struct {
	name    string
	sampler *GaussianSampler
}

var sizeMix = NewCategorical(
	[]sizeClass{
		{"small", NewGaussianSampler(4, 0.8, minWeightKg, maxWeightKg)},
		{"medium", NewGaussianSampler(7, 1.0, minWeightKg, maxWeightKg)},
		{"large", NewGaussianSampler(10, 1.2, minWeightKg, maxWeightKg)},
	},
	[]float64{0.20, 0.60, 0.20},
)

var complexitySampler = NewGaussianSampler(1.0, 0.1, 0.8, 1.2)

var (
	pickupLead   = &UniformSampler{lo: 24, hi: 48} // hours after placement
	deliveryLead = &UniformSampler{lo: 24, hi: 72} // hours after preferred pickup
)

// DailyVolume is the expected number of orders per day after scenario and price adjustment.
func DailyVolume(cfg *sim.Config) float64 {
	base := float64(cfg.Regional.Dwellings) * cfg.Regional.WeeklyPenetrationRate *
		cfg.Randomization.DemandScenario.Multiplier() / 7
	return base * PriceAdjustment(cfg)
}

// PriceAdjustment is (ReferencePrice / actual price) ^ elasticity.
func PriceAdjustment(cfg *sim.Config) float64 {
	actual := cfg.Pricing.WashPrice + cfg.Pricing.DryPrice
	if actual <= 0 {
		return 1.0
	}
	return math.Pow(ReferencePrice/actual, cfg.Elasticity.PriceElasticity)
}

// OrderCount is the number of orders Generate will produce.
func OrderCount(cfg *sim.Config) int {
	n := math.Round(DailyVolume(cfg) * float64(cfg.Simulation.DurationDays))
	if n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return int(n)
}

// ClusterCenters places cluster 0 at the region center and the others at compass offsets
// scaled by the density spread factor.
func ClusterCenters(cfg *sim.Config) []route.Point {
	c := route.Point{Lat: cfg.Regional.CenterLat, Lon: cfg.Regional.CenterLon}
	d := clusterOffsetDegrees * cfg.Regional.Density.SpreadFactor()
	return []route.Point{
		c,
		{Lat: c.Lat + d, Lon: c.Lon},
		{Lat: c.Lat, Lon: c.Lon + d},
		{Lat: c.Lat - d, Lon: c.Lon},
		{Lat: c.Lat, Lon: c.Lon - d},
	}
}

// Generate creates the order set for cfg's horizon from the demand subsystem of rng.
// Deterministic given the same config and seed.
// Returns orders sorted by PlacedAt with sequential IDs.
func Generate(cfg *sim.Config, rng *sim.PartitionedRNG) []*sim.Order {
	n := OrderCount(cfg)
	if n == 0 || cfg.Simulation.DurationDays <= 0 {
		logrus.Warnf("demand formula produced no orders (daily volume %.3f)", DailyVolume(cfg))
		return []*sim.Order{}
	}

	g := newGenerator(cfg, rng.ForSubsystem(sim.SubsystemDemand))

	orders := make([]*sim.Order, 0, n)
	for i := 0; i < n; i++ {
		orders = append(orders, g.next())
	}

	// Sort by placement time (stable sort preserves generation order for ties)
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].PlacedAt < orders[j].PlacedAt
	})

	// Assign sequential IDs
	for i, o := range orders {
		o.ID = fmt.Sprintf("order_%d", i)
	}

	logrus.Infof("generated %d orders over %d days (%.1f/day)", len(orders), cfg.Simulation.DurationDays, DailyVolume(cfg))
	return orders
}

type generator struct {
	cfg     *sim.Config
	rng     *rand.Rand
	centers []route.Point
	noise   *GaussianSampler
	slot    int64

	peakStart, peakEnd float64 // hours
	peakProb           float64
}

func newGenerator(cfg *sim.Config, rng *rand.Rand) *generator {
	sd := locationNoiseDegrees * cfg.Regional.Density.SpreadFactor()
	peakStart := clamp(float64(cfg.Randomization.PeakStartHour), serviceStartHour, serviceEndHour)
	peakEnd := clamp(float64(cfg.Randomization.PeakEndHour), peakStart, serviceEndHour)
	m := math.Max(0, cfg.Randomization.PeakMultiplier)
	return &generator{
		cfg:       cfg,
		rng:       rng,
		centers:   ClusterCenters(cfg),
		noise:     NewGaussianSampler(0, sd, math.Inf(-1), math.Inf(1)),
		slot:      int64(math.Round(cfg.Simulation.TimeSlotHours * float64(sim.TicksPerHour))),
		peakStart: peakStart,
		peakEnd:   peakEnd,
		peakProb:  m / (m + 1),
	}
}

// next draws one order. The sequence of draws is fixed so a seed reproduces the set exactly.
func (g *generator) next() *sim.Order {
	placed := g.placement()
	service := serviceMix.Sample(g.rng)

	subscribed := Bernoulli(g.rng, g.cfg.Elasticity.SubscriptionRatio)
	selfCheckProb := g.cfg.Elasticity.SelfCheckAdoption * 0.7
	if subscribed {
		selfCheckProb = math.Min(1.0, g.cfg.Elasticity.SelfCheckAdoption*1.5)
	}
	selfCheck := Bernoulli(g.rng, selfCheckProb)

	size := sizeMix.Sample(g.rng)
	weight := roundTo(size.sampler.Sample(g.rng), 1)
	complexity := complexitySampler.Sample(g.rng)

	cluster := g.rng.Intn(NumClusters)
	center := g.centers[cluster]
	lat := center.Lat + g.noise.Sample(g.rng)
	lon := center.Lon + g.noise.Sample(g.rng)

	pickup := g.roundToSlot(placed + hoursToTicks(pickupLead.Sample(g.rng)))
	delivery := g.roundToSlot(pickup + hoursToTicks(deliveryLead.Sample(g.rng)))

	o := sim.NewOrder("", placed, service, weight)
	o.PreferredPickupAt = pickup
	o.PreferredDeliveryAt = delivery
	o.Subscribed = subscribed
	o.SelfCheck = selfCheck
	o.Complexity = complexity
	o.Cluster = cluster
	o.Lat = lat
	o.Lon = lon
	o.ParkingDifficulty = g.cfg.Regional.ParkingDifficulty
	return o
}

// placement draws a placement tick: a uniform day, then a time inside the peak window with
// probability m/(m+1), otherwise uniform over the remaining service hours.
func (g *generator) placement() int64 {
	day := int64(g.rng.Intn(g.cfg.Simulation.DurationDays))

	peakLen := g.peakEnd - g.peakStart
	morningLen := g.peakStart - serviceStartHour
	offLen := morningLen + (serviceEndHour - g.peakEnd)

	inPeak := Bernoulli(g.rng, g.peakProb)
	if peakLen <= 0 {
		inPeak = false
	} else if offLen <= 0 {
		inPeak = true
	}

	u := g.rng.Float64()
	var hour float64
	if inPeak {
		hour = g.peakStart + u*peakLen
	} else {
		off := u * offLen
		if off < morningLen {
			hour = serviceStartHour + off
		} else {
			hour = g.peakEnd + (off - morningLen)
		}
	}
	return day*sim.TicksPerDay + hoursToTicks(hour)
}

// roundToSlot rounds a tick to the nearest time-slot boundary.
func (g *generator) roundToSlot(t int64) int64 {
	if g.slot <= 0 {
		return t
	}
	return int64(math.Round(float64(t)/float64(g.slot))) * g.slot
}

func hoursToTicks(h float64) int64 {
	return int64(h * float64(sim.TicksPerHour))
}
