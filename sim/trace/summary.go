package trace

// Summary aggregates statistics from a Log.
type Summary struct {
	TotalReservations  int
	TotalQueueEvents   int
	ReservationsByPool map[string]int // pool → reservation count
	ReservedTicks      map[string]int64
	QueueByReason      map[string]int // reason → queue event count
	MeanQueueDelay     float64        // ticks
	MaxQueueDelay      int64          // ticks
	QueuedOrders       int            // distinct orders that queued at least once
}

// Summarize computes aggregate statistics from a Log.
// Safe for nil or empty logs (returns zero-value fields).
func Summarize(l *Log) *Summary {
	summary := &Summary{
		ReservationsByPool: make(map[string]int),
		ReservedTicks:      make(map[string]int64),
		QueueByReason:      make(map[string]int),
	}
	if l == nil {
		return summary
	}

	summary.TotalReservations = len(l.Reservations)
	for _, r := range l.Reservations {
		summary.ReservationsByPool[r.Pool]++
		summary.ReservedTicks[r.Pool] += r.Duration()
	}

	summary.TotalQueueEvents = len(l.Queue)
	if len(l.Queue) > 0 {
		orders := make(map[string]bool)
		var totalDelay int64
		for _, q := range l.Queue {
			summary.QueueByReason[q.Reason]++
			orders[q.OrderID] = true
			d := q.Delay()
			totalDelay += d
			if d > summary.MaxQueueDelay {
				summary.MaxQueueDelay = d
			}
		}
		summary.MeanQueueDelay = float64(totalDelay) / float64(len(l.Queue))
		summary.QueuedOrders = len(orders)
	}

	return summary
}
