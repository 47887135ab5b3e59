package sim

import "container/heap"

// EventHeap implements a priority queue with deterministic ordering.
// Ordering: timestamp → insertion sequence.
type EventHeap struct {
	events  []Event
	nextSeq uint64
}

// NewEventHeap creates a new event heap
func NewEventHeap() *EventHeap {
	h := &EventHeap{
		events: make([]Event, 0),
	}
	heap.Init(h)
	return h
}

// Len implements heap.Interface
func (h *EventHeap) Len() int {
	return len(h.events)
}

// Less implements heap.Interface with deterministic ordering
func (h *EventHeap) Less(i, j int) bool {
	ei, ej := h.events[i], h.events[j]

	// Primary: timestamp (lower first)
	if ei.Time != ej.Time {
		return ei.Time < ej.Time
	}

	// Secondary: insertion order (stable tie-breaker)
	return ei.seq < ej.seq
}

// Swap implements heap.Interface
func (h *EventHeap) Swap(i, j int) {
	h.events[i], h.events[j] = h.events[j], h.events[i]
}

// Push implements heap.Interface
func (h *EventHeap) Push(x any) {
	h.events = append(h.events, x.(Event))
}

// Pop implements heap.Interface
func (h *EventHeap) Pop() any {
	old := h.events
	n := len(old)
	item := old[n-1]
	h.events = old[0 : n-1]
	return item
}

// Schedule stamps the event with the next insertion sequence and adds it to the heap.
func (h *EventHeap) Schedule(e Event) Event {
	h.nextSeq++
	e.seq = h.nextSeq
	heap.Push(h, e)
	return e
}

// PopNext removes and returns the next event. ok is false when the heap is empty.
func (h *EventHeap) PopNext() (Event, bool) {
	if h.Len() == 0 {
		return Event{}, false
	}
	return heap.Pop(h).(Event), true
}

// Peek returns the next event without removing it
func (h *EventHeap) Peek() (Event, bool) {
	if h.Len() == 0 {
		return Event{}, false
	}
	return h.events[0], true
}
