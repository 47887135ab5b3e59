// Package telemetry exposes a simulation run as Prometheus metrics.
// Each Collector owns its own registry, so concurrent runs never share series.
package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/laundrysim/laundrysim/sim"
	"github.com/laundrysim/laundrysim/sim/analysis"
	"github.com/laundrysim/laundrysim/sim/trace"
)

const namespace = "laundrysim"

// Collector records engine callbacks as counters. It implements sim.Observer.
type Collector struct {
	registry *prometheus.Registry

	eventsTotal       *prometheus.CounterVec
	queueEventsTotal  *prometheus.CounterVec
	queueDelayHours   *prometheus.HistogramVec
	reservationsTotal *prometheus.CounterVec
	reservedHours     *prometheus.CounterVec
	stalledTotal      *prometheus.CounterVec
	utilization       *prometheus.GaugeVec
}

var _ sim.Observer = (*Collector)(nil)

// NewCollector creates a collector whose series all carry the run_id label.
func NewCollector(runID string) (*Collector, error) {
	labels := prometheus.Labels{"run_id": runID}
	c := &Collector{
		registry: prometheus.NewRegistry(),

		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "events_total",
				Help:        "Events processed by the engine, by kind",
				ConstLabels: labels,
			},
			[]string{"kind"},
		),
		queueEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "queue_events_total",
				Help:        "Orders requeued because a resource was busy, by reason",
				ConstLabels: labels,
			},
			[]string{"reason"},
		),
		queueDelayHours: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Name:        "queue_delay_hours",
				Help:        "Simulated wait between a failed attempt and its retry",
				Buckets:     []float64{0.25, 0.5, 1, 2, 4, 8, 24},
				ConstLabels: labels,
			},
			[]string{"reason"},
		),
		reservationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "reservations_total",
				Help:        "Resource reservations, by pool",
				ConstLabels: labels,
			},
			[]string{"pool"},
		),
		reservedHours: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "reserved_hours_total",
				Help:        "Simulated hours reserved, by pool",
				ConstLabels: labels,
			},
			[]string{"pool"},
		),
		stalledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "stalled_orders_total",
				Help:        "Orders that stopped before delivery, by reason",
				ConstLabels: labels,
			},
			[]string{"reason"},
		),
		utilization: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "pool_utilization_percent",
				Help:        "Estimated utilization of each resource pool",
				ConstLabels: labels,
			},
			[]string{"pool"},
		),
	}

	metrics := []prometheus.Collector{
		c.eventsTotal,
		c.queueEventsTotal,
		c.queueDelayHours,
		c.reservationsTotal,
		c.reservedHours,
		c.stalledTotal,
		c.utilization,
	}
	for _, m := range metrics {
		if err := c.registry.Register(m); err != nil {
			return nil, fmt.Errorf("registering metric: %w", err)
		}
	}
	return c, nil
}

// Registry returns the collector's private registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) EventProcessed(ev sim.Event) {
	c.eventsTotal.WithLabelValues(ev.Kind.String()).Inc()
}

func (c *Collector) OrderQueued(e trace.QueueEntry) {
	c.queueEventsTotal.WithLabelValues(e.Reason).Inc()
	c.queueDelayHours.WithLabelValues(e.Reason).Observe(float64(e.Delay()) / float64(sim.TicksPerHour))
}

func (c *Collector) ResourceReserved(r trace.Reservation) {
	c.reservationsTotal.WithLabelValues(r.Pool).Inc()
	c.reservedHours.WithLabelValues(r.Pool).Add(float64(r.Duration()) / float64(sim.TicksPerHour))
}

func (c *Collector) OrderStalled(_ *sim.Order, reason string) {
	c.stalledTotal.WithLabelValues(reason).Inc()
}

// ObserveUtilization sets one gauge per pool from a finished analysis.
func (c *Collector) ObserveUtilization(u *analysis.Utilization) {
	for _, p := range u.Pools {
		c.utilization.WithLabelValues(p.Pool).Set(p.Percent)
	}
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
