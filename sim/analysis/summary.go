package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/laundrysim/laundrysim/sim"
	"github.com/laundrysim/laundrysim/sim/trace"
)

// Summary holds the completion statistics of a run.
// Average-per-order fields are NaN when no order completed.
type Summary struct {
	TotalOrders     int     `yaml:"total_orders"`
	CompletedOrders int     `yaml:"completed_orders"`
	StalledOrders   int     `yaml:"stalled_orders"`
	InFlightOrders  int     `yaml:"in_flight_orders"` // neither delivered nor stalled (halted runs)
	CompletionRate  float64 `yaml:"completion_rate"`
	AvgTotalHours   float64 `yaml:"avg_total_hours"`
	MedianHours     float64 `yaml:"median_total_hours"`
	StdDevHours     float64 `yaml:"stddev_total_hours"`
	P95Hours        float64 `yaml:"p95_total_hours"`

	QueueEvents         int            `yaml:"queue_events"`
	QueuedOrders        int            `yaml:"queued_orders"`
	QueueByReason       map[string]int `yaml:"queue_by_reason"`
	MeanQueueDelayHours float64        `yaml:"mean_queue_delay_hours"`
	Halted              bool           `yaml:"halted"`
}

// Summarize computes completion and queueing statistics for res.
func Summarize(res *sim.Result) *Summary {
	s := &Summary{TotalOrders: len(res.Orders), Halted: res.Halt != nil}

	hours := make([]float64, 0, len(res.Orders))
	for _, o := range res.Orders {
		switch o.Status {
		case sim.StatusDelivered:
			s.CompletedOrders++
			hours = append(hours, o.TotalHours)
		case sim.StatusStalled:
			s.StalledOrders++
		default:
			s.InFlightOrders++
		}
	}

	s.CompletionRate = ratio(s.CompletedOrders, s.TotalOrders)
	s.AvgTotalHours, s.MedianHours, s.StdDevHours, s.P95Hours = math.NaN(), math.NaN(), math.NaN(), math.NaN()
	if len(hours) > 0 {
		sort.Float64s(hours)
		s.AvgTotalHours = stat.Mean(hours, nil)
		s.MedianHours = percentile(hours, 50)
		s.P95Hours = percentile(hours, 95)
		s.StdDevHours = 0
		if len(hours) > 1 {
			s.StdDevHours = stat.StdDev(hours, nil)
		}
	}

	q := trace.Summarize(res.Log)
	s.QueueEvents = q.TotalQueueEvents
	s.QueuedOrders = q.QueuedOrders
	s.QueueByReason = q.QueueByReason
	s.MeanQueueDelayHours = q.MeanQueueDelay / float64(sim.TicksPerHour)
	return s
}

// ratio returns num/den, or NaN when den is zero.
func ratio(num, den int) float64 {
	if den == 0 {
		return math.NaN()
	}
	return float64(num) / float64(den)
}

// percentile computes the p-th percentile using linear interpolation.
// Input must be sorted and non-empty.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
