// Package trace provides the append-only capacity and queueing logs of a simulation run.
// This package has no dependencies on sim/ and stores plain data types.
package trace

// Reservation captures one resource unit being marked busy for an order.
type Reservation struct {
	Pool    string `yaml:"pool"`
	Unit    int    `yaml:"unit"`
	OrderID string `yaml:"order_id"`
	From    int64  `yaml:"from"`  // tick the reservation starts
	Until   int64  `yaml:"until"` // tick the unit becomes available again
}

// Duration returns the reserved span in ticks.
func (r Reservation) Duration() int64 {
	return r.Until - r.From
}

// QueueEntry captures one order that could not proceed because its resources were busy.
type QueueEntry struct {
	Time          int64  `yaml:"time"`
	OrderID       string `yaml:"order_id"`
	Reason        string `yaml:"reason"`
	RescheduledTo int64  `yaml:"rescheduled_to"`
}

// Delay returns how long the order waits before the retry.
func (q QueueEntry) Delay() int64 {
	return q.RescheduledTo - q.Time
}
