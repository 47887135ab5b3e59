// sim/simulator.go
package sim

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/laundrysim/laundrysim/sim/route"
	"github.com/laundrysim/laundrysim/sim/trace"
)

// Queue reasons recorded when an order cannot proceed.
const (
	ReasonVanOrDriver         = "van_or_driver_unavailable"
	ReasonWashMachine         = "wash_machine_unavailable"
	ReasonDryMachine          = "dry_machine_unavailable"
	ReasonDeliveryVanOrDriver = "delivery_van_or_driver_unavailable"
)

// Stall reasons.
const (
	StallNoCapacity      = "no_capacity"
	StallRetriesExceeded = "retry_budget_exhausted"
)

// TripPlanner sizes the van/driver reservation for one customer visit starting at tick at.
type TripPlanner interface {
	PlanTrip(o *Order, at int64) Trip
}

// Observer receives engine callbacks. Implementations must not mutate the order.
type Observer interface {
	EventProcessed(ev Event)
	OrderQueued(entry trace.QueueEntry)
	ResourceReserved(r trace.Reservation)
	OrderStalled(o *Order, reason string)
}

// NopObserver ignores every callback. Embed it to implement only part of Observer.
type NopObserver struct{}

func (NopObserver) EventProcessed(Event)               {}
func (NopObserver) OrderQueued(trace.QueueEntry)       {}
func (NopObserver) ResourceReserved(trace.Reservation) {}
func (NopObserver) OrderStalled(*Order, string)        {}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithTripPlanner replaces the route-based trip planner.
func WithTripPlanner(p TripPlanner) Option {
	return func(s *Simulator) { s.trips = p }
}

// WithObserver attaches an observer to the run.
func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.observer = o }
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(s *Simulator) { s.runID = id }
}

// Halt describes a run stopped by the global iteration cap.
// Orders still in flight keep their last reached status.
type Halt struct {
	Iterations int      `yaml:"iterations"`
	Remaining  int      `yaml:"remaining_events"`
	Unfinished []string `yaml:"unfinished_orders"`
}

func (h *Halt) Error() string {
	return fmt.Sprintf("simulation halted after %d iterations with %d events queued (%d orders unfinished)",
		h.Iterations, h.Remaining, len(h.Unfinished))
}

// Result is everything a run produces for downstream analysis.
type Result struct {
	RunID      string        `yaml:"run_id"`
	Orders     []*Order      `yaml:"orders"` // generation order
	Log        *trace.Log    `yaml:"log"`
	PoolSizes  [numPools]int `yaml:"pool_sizes"`
	Clock      int64         `yaml:"end_clock"`
	Iterations int           `yaml:"iterations"`
	Halt       *Halt         `yaml:"halt,omitempty"`
}

// PoolSize returns the configured unit count of a pool for this run.
func (r *Result) PoolSize(p Pool) int {
	return r.PoolSizes[p]
}

// Order looks up an order by ID.
func (r *Result) Order(id string) (*Order, bool) {
	for _, o := range r.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// Simulator is the core object that holds simulation time, the capacity ledger and the event loop.
// One Simulator is one run; it owns its ledger, logs and orders exclusively.
type Simulator struct {
	Clock int64

	cfg      *Config
	queue    *EventHeap
	ledger   *CapacityLedger
	log      *trace.Log
	orders   []*Order
	index    map[string]*Order // order ID → order
	trips    TripPlanner
	observer Observer
	runID    string

	iterations    int
	maxIterations int
	maxRetries    int
}

// NewSimulator prepares a run over the given orders and seeds one schedule_pickup event per
// order at its preferred pickup time, in slice order.
func NewSimulator(cfg *Config, orders []*Order, rng *PartitionedRNG, opts ...Option) *Simulator {
	log := trace.NewLog()
	s := &Simulator{
		cfg:        cfg,
		queue:      NewEventHeap(),
		ledger:     NewCapacityLedger(cfg.Capacity, log),
		log:        log,
		orders:     orders,
		index:      make(map[string]*Order, len(orders)),
		observer:   NopObserver{},
		maxRetries: cfg.Operations.MaxRetriesPerOrder,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.trips == nil {
		s.trips = NewRouteTripPlanner(cfg, route.NewEstimator(rng.ForSubsystem(SubsystemRoute), cfg.Randomization.TrafficJitter))
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}

	s.maxIterations = cfg.Operations.MaxIterations
	if s.maxIterations <= 0 {
		s.maxIterations = max(10000, len(orders)*10*int(numEventKinds))
	}

	for _, o := range orders {
		s.index[o.ID] = o
		s.schedule(o.PreferredPickupAt, EventSchedulePickup, o.ID)
	}
	return s
}

// Ledger exposes the run's capacity ledger.
func (s *Simulator) Ledger() *CapacityLedger {
	return s.ledger
}

// Pending returns the number of queued events.
func (s *Simulator) Pending() int {
	return s.queue.Len()
}

func (s *Simulator) schedule(at int64, kind EventKind, orderID string) {
	s.queue.Schedule(Event{Time: at, Kind: kind, OrderID: orderID})
}

// Run processes events until the queue drains or the iteration cap is reached.
func (s *Simulator) Run() *Result {
	logrus.Infof("[run %s] starting with %d orders, %d seed events", s.runID, len(s.orders), s.queue.Len())
	var halt *Halt
	for s.queue.Len() > 0 {
		if s.iterations >= s.maxIterations {
			halt = s.halt()
			break
		}
		ev, _ := s.queue.PopNext()

		if ev.Time < s.Clock {
			panic(fmt.Sprintf("clock went backwards: %d < %d", ev.Time, s.Clock))
		}
		s.Clock = ev.Time
		s.iterations++

		logrus.Debugf("[tick %09d] executing %s", s.Clock, ev)
		s.dispatch(ev)
		s.observer.EventProcessed(ev)
	}
	logrus.Infof("[run %s] ended at tick %d after %d events", s.runID, s.Clock, s.iterations)

	res := &Result{
		RunID:      s.runID,
		Orders:     s.orders,
		Log:        s.log,
		Clock:      s.Clock,
		Iterations: s.iterations,
		Halt:       halt,
	}
	for _, p := range Pools {
		res.PoolSizes[p] = s.ledger.Size(p)
	}
	return res
}

func (s *Simulator) halt() *Halt {
	h := &Halt{Iterations: s.iterations, Remaining: s.queue.Len()}
	for _, o := range s.orders {
		if !o.Status.Terminal() {
			h.Unfinished = append(h.Unfinished, o.ID)
		}
	}
	logrus.Warnf("[run %s] %v", s.runID, h)
	return h
}

// dispatch routes an event to its handler. Every EventKind must have a case.
func (s *Simulator) dispatch(ev Event) {
	o, ok := s.index[ev.OrderID]
	if !ok {
		panic(fmt.Sprintf("event %s references unknown order", ev))
	}
	if o.Status.Terminal() {
		return
	}
	switch ev.Kind {
	case EventSchedulePickup:
		s.schedulePickup(ev, o)
	case EventExecutePickup:
		s.executePickup(ev, o)
	case EventStartWashing:
		s.startWashing(ev, o)
	case EventSkipWashing:
		s.schedule(ev.Time, dryKind(o), o.ID)
	case EventStartDrying:
		s.startDrying(ev, o)
	case EventSkipDrying:
		s.schedule(ev.Time, EventStartFolding, o.ID)
	case EventStartFolding:
		s.startFolding(ev, o)
	case EventScheduleDelivery:
		s.scheduleDelivery(ev, o)
	case EventExecuteDelivery:
		s.executeDelivery(ev, o)
	default:
		panic(fmt.Sprintf("unhandled event kind %s", ev.Kind))
	}
}

func washKind(o *Order) EventKind {
	if o.Service.NeedsWash() {
		return EventStartWashing
	}
	return EventSkipWashing
}

func dryKind(o *Order) EventKind {
	if o.Service.NeedsDry() {
		return EventStartDrying
	}
	return EventSkipDrying
}

func (s *Simulator) schedulePickup(ev Event, o *Order) {
	van, driver, trip, ok := s.acquireCrew(ev, o, ReasonVanOrDriver)
	if !ok {
		return
	}
	o.VanID = PoolVan.UnitID(van)
	o.DriverID = PoolDriver.UnitID(driver)
	o.PickupTrip = trip
	o.enter(StatusPickupScheduled, ev.Time)
	s.schedule(ev.Time+minutesToTicks(trip.Minutes), EventExecutePickup, o.ID)
}

func (s *Simulator) executePickup(ev Event, o *Order) {
	o.enter(StatusPickedUp, ev.Time)
	items := math.Ceil(o.WeightKg * s.cfg.Operations.ItemsPerKg)
	intake := minutesToTicks(items * s.cfg.Operations.IntakeMinutesPerItem)
	s.schedule(ev.Time+intake, washKind(o), o.ID)
}

func (s *Simulator) startWashing(ev Event, o *Order) {
	unit, ok := s.acquire(ev, o, PoolWash, ReasonWashMachine)
	if !ok {
		return
	}
	ops := s.cfg.Operations
	done := ev.Time + minutesToTicks(ops.WashBaseMinutes+ops.WashMinutesPerKg*o.WeightKg)
	s.reserve(PoolWash, unit, o.ID, ev.Time, done)
	o.WashMachineID = PoolWash.UnitID(unit)
	o.enter(StatusWashing, ev.Time)
	s.schedule(done, dryKind(o), o.ID)
}

func (s *Simulator) startDrying(ev Event, o *Order) {
	unit, ok := s.acquire(ev, o, PoolDry, ReasonDryMachine)
	if !ok {
		return
	}
	ops := s.cfg.Operations
	done := ev.Time + minutesToTicks(ops.DryBaseMinutes+ops.DryMinutesPerKg*o.WeightKg)
	s.reserve(PoolDry, unit, o.ID, ev.Time, done)
	o.DryMachineID = PoolDry.UnitID(unit)
	o.enter(StatusDrying, ev.Time)
	s.schedule(done, EventStartFolding, o.ID)
}

func (s *Simulator) startFolding(ev Event, o *Order) {
	o.enter(StatusFolded, ev.Time)
	done := ev.Time + minutesToTicks(o.WeightKg*s.cfg.Operations.FoldMinutesPerKg)
	s.schedule(max(done, o.PreferredDeliveryAt), EventScheduleDelivery, o.ID)
}

func (s *Simulator) scheduleDelivery(ev Event, o *Order) {
	van, driver, trip, ok := s.acquireCrew(ev, o, ReasonDeliveryVanOrDriver)
	if !ok {
		return
	}
	o.DeliveryVanID = PoolVan.UnitID(van)
	o.DeliveryDriverID = PoolDriver.UnitID(driver)
	o.DeliveryTrip = trip
	o.enter(StatusOutForDelivery, ev.Time)
	s.schedule(ev.Time+minutesToTicks(trip.Minutes), EventExecuteDelivery, o.ID)
}

func (s *Simulator) executeDelivery(ev Event, o *Order) {
	o.enter(StatusDelivered, ev.Time)
	o.TotalHours = float64(ev.Time-o.PlacedAt) / float64(TicksPerHour)
	logrus.Debugf("delivered %s after %.2fh", o.ID, o.TotalHours)
}

// acquireCrew reserves one van and one driver for a round trip to the order, or requeues the
// event at the later of their next-available times. The trip is only planned once both are free.
func (s *Simulator) acquireCrew(ev Event, o *Order, reason string) (van, driver int, trip Trip, ok bool) {
	v := s.ledger.CheckAvailability(PoolVan, ev.Time)
	d := s.ledger.CheckAvailability(PoolDriver, ev.Time)
	if !v.Free() || !d.Free() {
		s.retry(ev, o, reason, max(v.NextAvailable, d.NextAvailable))
		return -1, -1, Trip{}, false
	}
	trip = s.trips.PlanTrip(o, ev.Time)
	until := ev.Time + minutesToTicks(trip.Minutes)
	s.reserve(PoolVan, v.Unit, o.ID, ev.Time, until)
	s.reserve(PoolDriver, d.Unit, o.ID, ev.Time, until)
	return v.Unit, d.Unit, trip, true
}

// acquire finds a free unit of a single pool, or requeues the event at its next-available time.
func (s *Simulator) acquire(ev Event, o *Order, p Pool, reason string) (int, bool) {
	a := s.ledger.CheckAvailability(p, ev.Time)
	if !a.Free() {
		s.retry(ev, o, reason, a.NextAvailable)
		return -1, false
	}
	return a.Unit, true
}

func (s *Simulator) reserve(p Pool, unit int, orderID string, from, until int64) {
	s.ledger.Reserve(p, unit, orderID, from, until)
	s.observer.ResourceReserved(trace.Reservation{Pool: p.String(), Unit: unit, OrderID: orderID, From: from, Until: until})
}

// retry re-emits ev at tick at, or stalls the order when the pool can never serve it or the
// order has used up its retry budget.
func (s *Simulator) retry(ev Event, o *Order, reason string, at int64) {
	if at == Never {
		s.stall(o, ev.Time, StallNoCapacity)
		return
	}
	if s.maxRetries > 0 && o.Attempts >= s.maxRetries {
		s.stall(o, ev.Time, StallRetriesExceeded)
		return
	}
	o.Attempts++
	entry := trace.QueueEntry{Time: ev.Time, OrderID: o.ID, Reason: reason, RescheduledTo: at}
	s.log.RecordQueue(entry)
	s.observer.OrderQueued(entry)
	logrus.Debugf("[tick %09d] %s queued: %s, retry at %d", ev.Time, o.ID, reason, at)
	s.schedule(at, ev.Kind, o.ID)
}

func (s *Simulator) stall(o *Order, now int64, reason string) {
	o.StalledFrom = o.Status
	o.enter(StatusStalled, now)
	s.observer.OrderStalled(o, reason)
	logrus.Warnf("[tick %09d] %s stalled in %s: %s", now, o.ID, o.StalledFrom, reason)
}

func minutesToTicks(minutes float64) int64 {
	return int64(math.Round(minutes * float64(TicksPerMinute)))
}

// RouteTripPlanner sizes a visit as a depot → customer → depot round trip.
type RouteTripPlanner struct {
	cfg       *Config
	estimator *route.Estimator
	depot     route.Point
}

// NewRouteTripPlanner creates a planner with the depot at the region center.
func NewRouteTripPlanner(cfg *Config, estimator *route.Estimator) *RouteTripPlanner {
	return &RouteTripPlanner{
		cfg:       cfg,
		estimator: estimator,
		depot:     route.Point{Lat: cfg.Regional.CenterLat, Lon: cfg.Regional.CenterLon},
	}
}

// PlanTrip implements TripPlanner.
func (p *RouteTripPlanner) PlanTrip(o *Order, at int64) Trip {
	m := p.estimator.RouteMetrics(p.depot, []route.Stop{{
		ID:                o.ID,
		Location:          route.Point{Lat: o.Lat, Lon: o.Lon},
		Hour:              p.cfg.HourOfDay(at),
		ParkingDifficulty: o.ParkingDifficulty,
	}})
	return Trip{Minutes: m.TotalMinutes, Km: m.TotalKm}
}
