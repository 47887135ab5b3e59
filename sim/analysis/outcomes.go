package analysis

import (
	"math/rand"

	"github.com/laundrysim/laundrysim/sim"
)

// Outcome is the post-hoc service result of one order.
// Only delivered orders can be refunded or have a failed delivery attempt.
type Outcome struct {
	OrderID        string `yaml:"order_id"`
	Refunded       bool   `yaml:"refunded"`
	FailedDelivery bool   `yaml:"failed_delivery"`
}

// ApplyOutcomes draws refund and failed-delivery flags for every delivered order, in slice
// order, two draws per delivered order. Returns one Outcome per input order.
func ApplyOutcomes(orders []*sim.Order, refundRate, failedRate float64, rng *rand.Rand) []Outcome {
	out := make([]Outcome, len(orders))
	for i, o := range orders {
		out[i].OrderID = o.ID
		if !o.Delivered() {
			continue
		}
		out[i].Refunded = rng.Float64() < refundRate
		out[i].FailedDelivery = rng.Float64() < failedRate
	}
	return out
}

// ServiceLevel aggregates completion and post-hoc outcome rates.
// Refund and failure rates are over delivered orders; every rate is NaN on an empty base.
type ServiceLevel struct {
	CompletionRate float64 `yaml:"completion_rate"`
	RefundRate     float64 `yaml:"refund_rate"`
	FailureRate    float64 `yaml:"failure_rate"`
	Refunds        int     `yaml:"refunds"`
	Failures       int     `yaml:"failed_deliveries"`
}

// NewServiceLevel computes service-level rates from orders and their outcomes.
func NewServiceLevel(orders []*sim.Order, outcomes []Outcome) ServiceLevel {
	delivered := 0
	for _, o := range orders {
		if o.Delivered() {
			delivered++
		}
	}
	var sl ServiceLevel
	for _, oc := range outcomes {
		if oc.Refunded {
			sl.Refunds++
		}
		if oc.FailedDelivery {
			sl.Failures++
		}
	}
	sl.CompletionRate = ratio(delivered, len(orders))
	sl.RefundRate = ratio(sl.Refunds, delivered)
	sl.FailureRate = ratio(sl.Failures, delivered)
	return sl
}
