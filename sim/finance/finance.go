// Package finance derives revenue, variable cost, contribution margin and break-even
// figures from a finished run. It reads the cost section of the configuration, which the
// engine never consults.
package finance

import (
	"math"

	"github.com/laundrysim/laundrysim/sim"
	"github.com/laundrysim/laundrysim/sim/analysis"
)

// OrderEconomics is the per-order revenue and cost breakdown.
type OrderEconomics struct {
	OrderID      string  `yaml:"order_id"`
	Revenue      float64 `yaml:"revenue"`
	WashCost     float64 `yaml:"wash_cost"`
	DryCost      float64 `yaml:"dry_cost"`
	DriverCost   float64 `yaml:"driver_cost"`
	FuelCost     float64 `yaml:"fuel_cost"`
	VariableCost float64 `yaml:"variable_cost"`
	Margin       float64 `yaml:"margin"`
}

// BreakEven is the weekly order volume at which contribution covers overhead.
type BreakEven struct {
	OrdersPerWeek float64 `yaml:"orders_per_week"` // +Inf when unreachable
	Reachable     bool    `yaml:"reachable"`       // false when the average margin is not positive
}

// Report aggregates the economics of every delivered order.
// Average-per-order fields are NaN when nothing was delivered.
type Report struct {
	DeliveredOrders    int     `yaml:"delivered_orders"`
	Revenue            float64 `yaml:"revenue"`
	VariableCost       float64 `yaml:"variable_cost"`
	ContributionMargin float64 `yaml:"contribution_margin"`
	AvgRevenue         float64 `yaml:"avg_revenue_per_order"`
	AvgMargin          float64 `yaml:"avg_margin_per_order"`
	MarginRate         float64 `yaml:"margin_rate"` // margin / revenue

	OrdersPerWeek  float64   `yaml:"orders_per_week"`
	WeeklyRevenue  float64   `yaml:"weekly_revenue"`
	WeeklyMargin   float64   `yaml:"weekly_margin"`
	WeeklyOverhead float64   `yaml:"weekly_overhead"`
	WeeklyProfit   float64   `yaml:"weekly_profit"`
	BreakEven      BreakEven `yaml:"break_even"`
}

// OrderRevenue prices one order: service prices, minus the self-check discount (never below
// zero), then the subscription discount.
func OrderRevenue(o *sim.Order, p sim.PricingConfig) float64 {
	rev := 0.0
	if o.Service.NeedsWash() {
		rev += p.WashPrice
	}
	if o.Service.NeedsDry() {
		rev += p.DryPrice
	}
	if o.SelfCheck {
		rev = math.Max(0, rev-p.SelfCheckDiscount)
	}
	if o.Subscribed {
		rev *= 1 - p.SubscriptionDiscount
	}
	return rev
}

// Economics computes revenue and variable cost for one order with its post-hoc outcome.
// Refunded orders earn nothing; a failed delivery pays for the delivery trip twice.
func Economics(o *sim.Order, oc analysis.Outcome, cfg *sim.Config) OrderEconomics {
	c := cfg.Costs
	e := OrderEconomics{OrderID: o.ID}
	if !oc.Refunded {
		e.Revenue = OrderRevenue(o, cfg.Pricing)
	}
	if o.Service.NeedsWash() {
		e.WashCost = c.WashCostPerKg * o.WeightKg
	}
	if o.Service.NeedsDry() {
		e.DryCost = c.DryCostPerKg * o.WeightKg
	}

	minutes := o.PickupTrip.Minutes + o.DeliveryTrip.Minutes
	km := o.PickupTrip.Km + o.DeliveryTrip.Km
	if oc.FailedDelivery {
		minutes += o.DeliveryTrip.Minutes
		km += o.DeliveryTrip.Km
	}
	e.DriverCost = minutes / 60 * c.DriverHourlyRate
	e.FuelCost = km * c.FuelPerKm

	e.VariableCost = e.WashCost + e.DryCost + e.DriverCost + e.FuelCost
	e.Margin = e.Revenue - e.VariableCost
	return e
}

// Evaluate builds the financial report over the delivered orders. outcomes is matched to
// orders by index and may be nil.
func Evaluate(orders []*sim.Order, outcomes []analysis.Outcome, cfg *sim.Config) *Report {
	r := &Report{WeeklyOverhead: cfg.Costs.WeeklyOverhead}
	for i, o := range orders {
		if !o.Delivered() {
			continue
		}
		var oc analysis.Outcome
		if i < len(outcomes) {
			oc = outcomes[i]
		}
		e := Economics(o, oc, cfg)
		r.DeliveredOrders++
		r.Revenue += e.Revenue
		r.VariableCost += e.VariableCost
	}
	r.ContributionMargin = r.Revenue - r.VariableCost

	r.AvgRevenue, r.AvgMargin, r.MarginRate = math.NaN(), math.NaN(), math.NaN()
	if r.DeliveredOrders > 0 {
		n := float64(r.DeliveredOrders)
		r.AvgRevenue = r.Revenue / n
		r.AvgMargin = r.ContributionMargin / n
	}
	if r.Revenue > 0 {
		r.MarginRate = r.ContributionMargin / r.Revenue
	}

	weeks := float64(cfg.Simulation.DurationDays) / 7
	if weeks > 0 {
		r.OrdersPerWeek = float64(r.DeliveredOrders) / weeks
		r.WeeklyRevenue = r.Revenue / weeks
		r.WeeklyMargin = r.ContributionMargin / weeks
	}
	r.WeeklyProfit = r.WeeklyMargin - r.WeeklyOverhead
	r.BreakEven = breakEven(r.WeeklyOverhead, r.AvgMargin)
	return r
}

func breakEven(overhead, avgMargin float64) BreakEven {
	if math.IsNaN(avgMargin) || avgMargin <= 0 || math.IsInf(avgMargin, 0) {
		return BreakEven{OrdersPerWeek: math.Inf(1)}
	}
	return BreakEven{OrdersPerWeek: math.Ceil(overhead / avgMargin), Reachable: true}
}
