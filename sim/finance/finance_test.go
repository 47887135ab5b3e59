package finance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/laundrysim/laundrysim/sim"
	"github.com/laundrysim/laundrysim/sim/analysis"
)

func testConfig() *sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Pricing = sim.PricingConfig{WashPrice: 7, DryPrice: 8, SelfCheckDiscount: 1.5, SubscriptionDiscount: 0.1}
	cfg.Costs = sim.CostConfig{DriverHourlyRate: 20, WashCostPerKg: 0.5, DryCostPerKg: 0.4, WeeklyOverhead: 1000, FuelPerKm: 0.2}
	cfg.Simulation.DurationDays = 7
	return cfg
}

func deliveredOrder(id string, service sim.ServiceType) *sim.Order {
	o := sim.NewOrder(id, 0, service, 10)
	o.Status = sim.StatusDelivered
	o.PickupTrip = sim.Trip{Minutes: 30, Km: 5}
	o.DeliveryTrip = sim.Trip{Minutes: 30, Km: 5}
	return o
}

func TestOrderRevenue_Discounts(t *testing.T) {
	p := testConfig().Pricing
	tests := []struct {
		name       string
		service    sim.ServiceType
		selfCheck  bool
		subscribed bool
		want       float64
	}{
		{"wash and dry", sim.ServiceWashDry, false, false, 15},
		{"wash only", sim.ServiceWashOnly, false, false, 7},
		{"dry only", sim.ServiceDryOnly, false, false, 8},
		{"self check", sim.ServiceWashDry, true, false, 13.5},
		{"subscribed", sim.ServiceWashDry, false, true, 13.5},
		{"both discounts", sim.ServiceWashDry, true, true, 12.15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := sim.NewOrder("o", 0, tt.service, 5)
			o.SelfCheck = tt.selfCheck
			o.Subscribed = tt.subscribed
			assert.InDelta(t, tt.want, OrderRevenue(o, p), 1e-9)
		})
	}
}

func TestOrderRevenue_SelfCheckNeverNegative(t *testing.T) {
	p := sim.PricingConfig{WashPrice: 1, SelfCheckDiscount: 5}
	o := sim.NewOrder("o", 0, sim.ServiceWashOnly, 5)
	o.SelfCheck = true
	assert.Equal(t, 0.0, OrderRevenue(o, p))
}

func TestEconomics_CostBreakdown(t *testing.T) {
	cfg := testConfig()
	e := Economics(deliveredOrder("o", sim.ServiceWashDry), analysis.Outcome{}, cfg)

	assert.InDelta(t, 15.0, e.Revenue, 1e-9)
	assert.InDelta(t, 5.0, e.WashCost, 1e-9)
	assert.InDelta(t, 4.0, e.DryCost, 1e-9)
	assert.InDelta(t, 20.0, e.DriverCost, 1e-9) // 1h at 20/h
	assert.InDelta(t, 2.0, e.FuelCost, 1e-9)    // 10km at 0.2/km
	assert.InDelta(t, 31.0, e.VariableCost, 1e-9)
	assert.InDelta(t, -16.0, e.Margin, 1e-9)
}

func TestEconomics_RefundAndFailedDelivery(t *testing.T) {
	cfg := testConfig()
	o := deliveredOrder("o", sim.ServiceWashOnly)

	refunded := Economics(o, analysis.Outcome{Refunded: true}, cfg)
	assert.Equal(t, 0.0, refunded.Revenue)
	assert.Greater(t, refunded.VariableCost, 0.0)

	failed := Economics(o, analysis.Outcome{FailedDelivery: true}, cfg)
	normal := Economics(o, analysis.Outcome{}, cfg)
	assert.InDelta(t, normal.DriverCost+10, failed.DriverCost, 1e-9) // one extra 30-minute trip
	assert.InDelta(t, normal.FuelCost+1, failed.FuelCost, 1e-9)
}

func TestEvaluate_WeeklyAndBreakEven(t *testing.T) {
	// GIVEN a week with two profitable delivered orders and one undelivered order
	cfg := testConfig()
	cfg.Costs = sim.CostConfig{WeeklyOverhead: 100}
	pending := sim.NewOrder("pending", 0, sim.ServiceWashDry, 5)
	orders := []*sim.Order{deliveredOrder("a", sim.ServiceWashDry), deliveredOrder("b", sim.ServiceWashOnly), pending}

	// WHEN evaluated without outcomes
	r := Evaluate(orders, nil, cfg)

	// THEN only delivered orders count and break-even rounds up
	assert.Equal(t, 2, r.DeliveredOrders)
	assert.InDelta(t, 22.0, r.Revenue, 1e-9)
	assert.InDelta(t, 11.0, r.AvgMargin, 1e-9)
	assert.InDelta(t, 1.0, r.MarginRate, 1e-9)
	assert.InDelta(t, 2.0, r.OrdersPerWeek, 1e-9)
	assert.InDelta(t, -78.0, r.WeeklyProfit, 1e-9)
	assert.True(t, r.BreakEven.Reachable)
	assert.Equal(t, 10.0, r.BreakEven.OrdersPerWeek) // ceil(100 / 11)
}

func TestEvaluate_TwoWeekRun_ScalesToWeekly(t *testing.T) {
	cfg := testConfig()
	cfg.Simulation.DurationDays = 14
	orders := []*sim.Order{deliveredOrder("a", sim.ServiceWashDry), deliveredOrder("b", sim.ServiceWashDry)}

	r := Evaluate(orders, nil, cfg)

	assert.InDelta(t, 1.0, r.OrdersPerWeek, 1e-9)
	assert.InDelta(t, r.Revenue/2, r.WeeklyRevenue, 1e-9)
}

func TestEvaluate_NoDeliveries_GuardedAverages(t *testing.T) {
	r := Evaluate(nil, nil, testConfig())

	assert.Equal(t, 0, r.DeliveredOrders)
	assert.True(t, math.IsNaN(r.AvgMargin))
	assert.True(t, math.IsNaN(r.MarginRate))
	assert.False(t, r.BreakEven.Reachable)
	assert.True(t, math.IsInf(r.BreakEven.OrdersPerWeek, 1))
}

func TestEvaluate_NegativeMargin_BreakEvenUnreachable(t *testing.T) {
	r := Evaluate([]*sim.Order{deliveredOrder("a", sim.ServiceWashDry)}, nil, testConfig())

	assert.Less(t, r.AvgMargin, 0.0)
	assert.False(t, r.BreakEven.Reachable)
}
