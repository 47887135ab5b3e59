package sim

import (
	"fmt"
	"math/rand"

	"github.com/laundrysim/laundrysim/sim/trace"
)

// fixedTrips sizes every visit identically so tests can predict ticks exactly.
type fixedTrips struct {
	minutes float64
}

func (f fixedTrips) PlanTrip(*Order, int64) Trip {
	return Trip{Minutes: f.minutes, Km: 1}
}

// recordingObserver keeps every callback in arrival order.
type recordingObserver struct {
	events       []Event
	queued       []trace.QueueEntry
	reservations []trace.Reservation
	stalled      map[string]string // order ID → reason
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{stalled: make(map[string]string)}
}

func (r *recordingObserver) EventProcessed(ev Event)              { r.events = append(r.events, ev) }
func (r *recordingObserver) OrderQueued(e trace.QueueEntry)       { r.queued = append(r.queued, e) }
func (r *recordingObserver) ResourceReserved(res trace.Reservation) {
	r.reservations = append(r.reservations, res)
}
func (r *recordingObserver) OrderStalled(o *Order, reason string) { r.stalled[o.ID] = reason }

// testOrder builds an order placed a day before its preferred pickup, with delivery preferred a
// day after it.
func testOrder(id string, pickupAt int64, service ServiceType, weightKg float64) *Order {
	o := NewOrder(id, pickupAt-TicksPerDay, service, weightKg)
	o.PreferredPickupAt = pickupAt
	o.PreferredDeliveryAt = pickupAt + TicksPerDay
	o.Lat = 52.3676
	o.Lon = 4.9041
	return o
}

// testRandomOrders generates n orders with pickups spread over three days, sorted by placement.
func testRandomOrders(n int, seed int64) []*Order {
	rng := rand.New(rand.NewSource(seed))
	services := []ServiceType{ServiceWashDry, ServiceWashOnly, ServiceDryOnly}
	orders := make([]*Order, 0, n)
	for i := 0; i < n; i++ {
		pickup := TicksPerDay + rng.Int63n(3*24)*TicksPerHour
		o := testOrder(fmt.Sprintf("order_%d", i), pickup, services[rng.Intn(len(services))], 2+rng.Float64()*10)
		o.Lat += (rng.Float64() - 0.5) * 0.05
		o.Lon += (rng.Float64() - 0.5) * 0.05
		o.ParkingDifficulty = 1 + rng.Intn(10)
		orders = append(orders, o)
	}
	return orders
}

func testConfig(vans, drivers, wash, dry int) *Config {
	cfg := DefaultConfig()
	cfg.Capacity.Vans = vans
	cfg.Capacity.Drivers = drivers
	cfg.Capacity.WashMachines = wash
	cfg.Capacity.DryMachines = dry
	return cfg
}

func testRNG(seed int64) *PartitionedRNG {
	return NewPartitionedRNG(NewSimulationKey(seed))
}
