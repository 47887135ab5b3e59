package sim

import (
	"fmt"
	"math"

	"github.com/laundrysim/laundrysim/sim/trace"
)

// Pool identifies one of the four resource pools.
type Pool int

const (
	PoolVan Pool = iota
	PoolDriver
	PoolWash
	PoolDry

	numPools
)

// NumPools is the number of resource pools.
const NumPools = int(numPools)

// Pools lists the pools in their fixed priority order (van, driver, wash, dry).
var Pools = []Pool{PoolVan, PoolDriver, PoolWash, PoolDry}

var poolNames = [numPools]string{
	PoolVan:    "van",
	PoolDriver: "driver",
	PoolWash:   "wash",
	PoolDry:    "dry",
}

func (p Pool) String() string {
	if p < 0 || p >= numPools {
		return fmt.Sprintf("pool(%d)", int(p))
	}
	return poolNames[p]
}

// UnitID labels a unit for order history, e.g. "van_0".
func (p Pool) UnitID(unit int) string {
	return fmt.Sprintf("%s_%d", p, unit)
}

// Never is the next-available time of a pool that has no units.
const Never int64 = math.MaxInt64

// Availability is the answer to a CheckAvailability query.
type Availability struct {
	Unit          int   // first free unit, or -1 if none is free
	NextAvailable int64 // available-from of Unit when free; otherwise earliest available-from across units
}

// Free reports whether a unit can be reserved at the queried time.
func (a Availability) Free() bool {
	return a.Unit >= 0
}

// CapacityLedger tracks each unit's next-available tick for every pool.
// Not safe for concurrent use: exactly one simulation run owns a ledger.
type CapacityLedger struct {
	availableFrom [numPools][]int64
	log           *trace.Log
}

// NewCapacityLedger creates a ledger with every unit available from tick 0.
// Reservations are recorded into log; a nil log gets a fresh one.
func NewCapacityLedger(c CapacityConfig, log *trace.Log) *CapacityLedger {
	if log == nil {
		log = trace.NewLog()
	}
	l := &CapacityLedger{log: log}
	sizes := [numPools]int{
		PoolVan:    c.Vans,
		PoolDriver: c.Drivers,
		PoolWash:   c.WashMachines,
		PoolDry:    c.DryMachines,
	}
	for p, n := range sizes {
		l.availableFrom[p] = make([]int64, max(n, 0))
	}
	return l
}

// Size returns the number of units in a pool.
func (l *CapacityLedger) Size(p Pool) int {
	return len(l.availableFrom[p])
}

// CheckAvailability returns the lowest-index unit free at tick at, or, if none is free,
// the earliest tick any unit frees up.
func (l *CapacityLedger) CheckAvailability(p Pool, at int64) Availability {
	units := l.availableFrom[p]
	next := Never
	for i, from := range units {
		if from <= at {
			return Availability{Unit: i, NextAvailable: from}
		}
		next = min(next, from)
	}
	return Availability{Unit: -1, NextAvailable: next}
}

// Reserve marks unit busy until the given tick and records the reservation.
// Callers guarantee until is not earlier than the unit's current available-from.
func (l *CapacityLedger) Reserve(p Pool, unit int, orderID string, from, until int64) {
	l.availableFrom[p][unit] = until
	l.log.RecordReservation(trace.Reservation{
		Pool:    p.String(),
		Unit:    unit,
		OrderID: orderID,
		From:    from,
		Until:   until,
	})
}

// AvailableFrom returns a copy of one pool's availability array.
func (l *CapacityLedger) AvailableFrom(p Pool) []int64 {
	out := make([]int64, len(l.availableFrom[p]))
	copy(out, l.availableFrom[p])
	return out
}

// Busy counts the units of a pool still reserved at tick at.
func (l *CapacityLedger) Busy(p Pool, at int64) int {
	n := 0
	for _, from := range l.availableFrom[p] {
		if from > at {
			n++
		}
	}
	return n
}

// Log returns the reservation log the ledger writes to.
func (l *CapacityLedger) Log() *trace.Log {
	return l.log
}
