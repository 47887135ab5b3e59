// Defines the Order struct that models one customer request in the simulation.
// Demand attributes are fixed by the generator; lifecycle attributes are owned by the engine.

package sim

import (
	"fmt"
)

// Simulated time is measured in ticks: seconds since midnight of the configured start date.
const (
	TicksPerMinute int64 = 60
	TicksPerHour   int64 = 60 * TicksPerMinute
	TicksPerDay    int64 = 24 * TicksPerHour
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPlaced          Status = "placed"
	StatusPickupScheduled Status = "pickup_scheduled"
	StatusPickedUp        Status = "picked_up"
	StatusWashing         Status = "washing"
	StatusDrying          Status = "drying"
	StatusFolded          Status = "folded"
	StatusOutForDelivery  Status = "out_for_delivery"
	StatusDelivered       Status = "delivered"
	// StatusStalled marks an order that exhausted its retry budget or needs a pool with no units.
	StatusStalled Status = "stalled"
)

// LifecycleStatuses lists the non-stalled statuses in stage order.
var LifecycleStatuses = []Status{
	StatusPlaced, StatusPickupScheduled, StatusPickedUp, StatusWashing, StatusDrying,
	StatusFolded, StatusOutForDelivery, StatusDelivered,
}

// Terminal reports whether no further events will be processed for an order in this status.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusStalled
}

// ServiceType is the requested service mix.
type ServiceType string

const (
	ServiceWashOnly ServiceType = "wash_only"
	ServiceDryOnly  ServiceType = "dry_only"
	ServiceWashDry  ServiceType = "wash_dry"
)

// NeedsWash reports whether the service includes washing.
func (s ServiceType) NeedsWash() bool { return s == ServiceWashOnly || s == ServiceWashDry }

// NeedsDry reports whether the service includes drying.
func (s ServiceType) NeedsDry() bool { return s == ServiceDryOnly || s == ServiceWashDry }

// Order models a single order's lifecycle in the simulation.
type Order struct {
	ID string `yaml:"id"`

	// Demand attributes, immutable after generation.
	PlacedAt            int64       `yaml:"placed_at"`
	PreferredPickupAt   int64       `yaml:"preferred_pickup_at"`
	PreferredDeliveryAt int64       `yaml:"preferred_delivery_at"`
	Service             ServiceType `yaml:"service"`
	WeightKg            float64     `yaml:"weight_kg"`
	Subscribed          bool        `yaml:"subscribed"`
	SelfCheck           bool        `yaml:"self_check"`
	Complexity          float64     `yaml:"complexity"`
	Cluster             int         `yaml:"cluster"`
	Lat                 float64     `yaml:"lat"`
	Lon                 float64     `yaml:"lon"`
	ParkingDifficulty   int         `yaml:"parking_difficulty"`

	// Lifecycle attributes, written by the engine one stage at a time.
	Status      Status           `yaml:"status"`
	StalledFrom Status           `yaml:"stalled_from,omitempty"` // last lifecycle status before stalling
	Timeline    map[Status]int64 `yaml:"timeline"`               // stage-entry tick per reached status
	Attempts    int              `yaml:"attempts"`               // reschedules due to unavailable resources

	VanID            string `yaml:"van_id,omitempty"`
	DriverID         string `yaml:"driver_id,omitempty"`
	WashMachineID    string `yaml:"wash_machine_id,omitempty"`
	DryMachineID     string `yaml:"dry_machine_id,omitempty"`
	DeliveryVanID    string `yaml:"delivery_van_id,omitempty"`
	DeliveryDriverID string `yaml:"delivery_driver_id,omitempty"`

	PickupTrip   Trip    `yaml:"pickup_trip"`
	DeliveryTrip Trip    `yaml:"delivery_trip"`
	TotalHours   float64 `yaml:"total_hours"` // placement to delivery; 0 until delivered
}

// Trip is the van/driver time and distance of one customer visit.
type Trip struct {
	Minutes float64 `yaml:"minutes"`
	Km      float64 `yaml:"km"`
}

// NewOrder creates an order in StatusPlaced with its placement stamped on the timeline.
// Callers set the remaining demand attributes before handing it to the engine.
func NewOrder(id string, placedAt int64, service ServiceType, weightKg float64) *Order {
	return &Order{
		ID:                  id,
		PlacedAt:            placedAt,
		PreferredPickupAt:   placedAt,
		PreferredDeliveryAt: placedAt,
		Service:             service,
		WeightKg:            weightKg,
		Complexity:          1.0,
		ParkingDifficulty:   1,
		Status:              StatusPlaced,
		Timeline:            map[Status]int64{StatusPlaced: placedAt},
	}
}

// Entered returns the tick at which the order entered status s.
func (o *Order) Entered(s Status) (int64, bool) {
	t, ok := o.Timeline[s]
	return t, ok
}

// Delivered reports whether the order reached its terminal delivered state.
func (o *Order) Delivered() bool {
	return o.Status == StatusDelivered
}

// enter moves the order to status s at tick now.
func (o *Order) enter(s Status, now int64) {
	if o.Timeline == nil {
		o.Timeline = make(map[Status]int64)
	}
	o.Status = s
	o.Timeline[s] = now
}

// String returns a human-readable representation of an Order.
func (o Order) String() string {
	return fmt.Sprintf("Order: (ID: %s, Status: %s, Service: %s, Weight: %.1fkg, PlacedAt: %d)",
		o.ID, o.Status, o.Service, o.WeightKg, o.PlacedAt)
}
