// Package analysis turns a finished simulation run into operational signals:
// per-pool utilization, bottlenecks, completion statistics and service levels.
package analysis

import (
	"fmt"
	"math"

	"github.com/laundrysim/laundrysim/sim"
)

// Method selects how used-hours per pool are estimated.
type Method string

const (
	// MethodRoutes groups orders into synthetic routes of a fixed average size and charges
	// wash/dry machines a fixed average processing time per order.
	MethodRoutes Method = "routes"
	// MethodLedger sums the reserved durations from the capacity reservation log.
	MethodLedger Method = "ledger"
)

const (
	BottleneckThreshold    = 80.0 // percent, inclusive
	UnderutilizedThreshold = 50.0 // percent, exclusive
)

// PoolUsage is the utilization of one resource type.
type PoolUsage struct {
	Pool           string  `yaml:"pool"`
	Size           int     `yaml:"size"`
	UsedHours      float64 `yaml:"used_hours"`
	AvailableHours float64 `yaml:"available_hours"`
	Percent        float64 `yaml:"percent"` // +Inf when a pool with no units was needed
}

// Utilization is the per-pool analysis of a run.
type Utilization struct {
	Method        Method      `yaml:"method"`
	Pools         []PoolUsage `yaml:"pools"` // van, driver, wash, dry
	Bottlenecks   []string    `yaml:"bottlenecks"`
	Underutilized []string    `yaml:"underutilized"`
	Primary       string      `yaml:"primary_bottleneck,omitempty"` // empty when nothing reaches the threshold
}

// Percent returns the utilization of the named pool, or NaN if it is unknown.
func (u *Utilization) Percent(pool string) float64 {
	for _, p := range u.Pools {
		if p.Pool == pool {
			return p.Percent
		}
	}
	return math.NaN()
}

// Analyze computes utilization for every pool of res.
func Analyze(res *sim.Result, cfg *sim.Config, method Method) (*Utilization, error) {
	var used [sim.NumPools]float64
	switch method {
	case MethodRoutes, "":
		method = MethodRoutes
		used = routeHours(res.Orders, cfg.Analysis)
	case MethodLedger:
		used = ledgerHours(res)
	default:
		return nil, fmt.Errorf("unknown utilization method %q", method)
	}

	perUnit := cfg.Capacity.OperatingHoursPerDay * float64(cfg.Simulation.DurationDays)
	u := &Utilization{Method: method}
	for _, p := range sim.Pools {
		size := res.PoolSize(p)
		usage := PoolUsage{
			Pool:           p.String(),
			Size:           size,
			UsedHours:      used[p],
			AvailableHours: float64(size) * perUnit,
		}
		usage.Percent = percentOf(usage.UsedHours, usage.AvailableHours)
		u.Pools = append(u.Pools, usage)
	}
	classify(u)
	return u, nil
}

func percentOf(used, available float64) float64 {
	if available <= 0 {
		if used > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return used / available * 100
}

// classify fills the bottleneck lists. Pools are visited in priority order and only a
// strictly higher value displaces the current primary, so ties go to the earlier pool.
func classify(u *Utilization) {
	best := math.Inf(-1)
	for _, p := range u.Pools {
		switch {
		case p.Percent >= BottleneckThreshold:
			u.Bottlenecks = append(u.Bottlenecks, p.Pool)
			if p.Percent > best {
				best = p.Percent
				u.Primary = p.Pool
			}
		case p.Percent < UnderutilizedThreshold:
			u.Underutilized = append(u.Underutilized, p.Pool)
		}
	}
}

// routeHours is the synthetic-route approximation: each direction (pickup and delivery)
// needs ceil(orders / stops per route) routes of the average route length.
func routeHours(orders []*sim.Order, a sim.AnalysisConfig) [sim.NumPools]float64 {
	var washes, dries int
	for _, o := range orders {
		if o.Service.NeedsWash() {
			washes++
		}
		if o.Service.NeedsDry() {
			dries++
		}
	}
	routes := 0.0
	if a.AvgStopsPerRoute > 0 {
		routes = 2 * math.Ceil(float64(len(orders))/a.AvgStopsPerRoute)
	}
	crew := routes * a.AvgRouteHours

	var used [sim.NumPools]float64
	used[sim.PoolVan] = crew
	used[sim.PoolDriver] = crew
	used[sim.PoolWash] = float64(washes) * a.AvgWashHours
	used[sim.PoolDry] = float64(dries) * a.AvgDryHours
	return used
}

func ledgerHours(res *sim.Result) [sim.NumPools]float64 {
	var used [sim.NumPools]float64
	if res.Log == nil {
		return used
	}
	for _, p := range sim.Pools {
		var ticks int64
		for _, r := range res.Log.ReservationsFor(p.String()) {
			ticks += r.Duration()
		}
		used[p] = float64(ticks) / float64(sim.TicksPerHour)
	}
	return used
}
