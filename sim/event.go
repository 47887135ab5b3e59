package sim

import "fmt"

// EventKind is the closed set of lifecycle transition triggers.
type EventKind int

const (
	EventSchedulePickup EventKind = iota
	EventExecutePickup
	EventStartWashing
	EventSkipWashing
	EventStartDrying
	EventSkipDrying
	EventStartFolding
	EventScheduleDelivery
	EventExecuteDelivery

	numEventKinds
)

var eventKindNames = [numEventKinds]string{
	EventSchedulePickup:   "schedule_pickup",
	EventExecutePickup:    "execute_pickup",
	EventStartWashing:     "start_washing",
	EventSkipWashing:      "skip_washing",
	EventStartDrying:      "start_drying",
	EventSkipDrying:       "skip_drying",
	EventStartFolding:     "start_folding",
	EventScheduleDelivery: "schedule_delivery",
	EventExecuteDelivery:  "execute_delivery",
}

// EventKinds lists every kind in lifecycle order.
func EventKinds() []EventKind {
	kinds := make([]EventKind, numEventKinds)
	for i := range kinds {
		kinds[i] = EventKind(i)
	}
	return kinds
}

func (k EventKind) String() string {
	if k < 0 || k >= numEventKinds {
		return fmt.Sprintf("event_kind(%d)", int(k))
	}
	return eventKindNames[k]
}

// Event is a scheduled lifecycle transition for one order.
// Events are processed in non-decreasing Time; equal times keep insertion order.
type Event struct {
	Time    int64
	Kind    EventKind
	OrderID string
	seq     uint64 // insertion sequence, assigned by the heap
}

// Seq returns the insertion sequence number assigned when the event was scheduled.
func (e Event) Seq() uint64 {
	return e.seq
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%s)@%d", e.Kind, e.OrderID, e.Time)
}
