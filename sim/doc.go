// Package sim provides the core discrete-event simulation engine for laundrysim.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - order.go: Order lifecycle (placed → ... → delivered, or stalled) and its timeline
//   - event.go: Event kinds that drive the lifecycle (schedule_pickup, start_washing, etc.)
//   - simulator.go: The event loop, resource acquisition and retry handling
//
// capacity.go holds the CapacityLedger, the per-unit next-available table for the four
// resource pools (vans, drivers, wash machines, dry machines). config.go holds the YAML
// scenario configuration and its validation.
//
// # Architecture
//
// The sim package owns the engine and its data types; consumers live in sub-packages:
//   - sim/route/: Distance and travel-time estimation
//   - sim/trace/: Reservation and queue-event logs
//   - sim/demand/: Seeded order generation
//   - sim/analysis/: Utilization, bottlenecks and run summaries
//   - sim/finance/: Revenue, cost and break-even
//   - sim/scenario/: End-to-end pipeline and concurrent scenario comparison
//   - sim/telemetry/: Prometheus metrics for a run
//
// # Key Interfaces
//
//   - TripPlanner: sizes the van/driver reservation for one customer visit
//   - Observer: receives event, queue, reservation and stall callbacks during a run
package sim
