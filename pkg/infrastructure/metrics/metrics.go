// Package metrics exposes planning-run metrics in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bagplan"

// Collector records order outcomes, committed cost and machine load
type Collector struct {
	ordersProcessed  prometheus.Counter
	ordersFeasible   prometheus.Counter
	ordersInfeasible prometheus.Counter
	ordersFailed     prometheus.Counter
	committedCost    prometheus.Counter
	feedDegraded     prometheus.Counter
	runsTotal        *prometheus.CounterVec

	runDuration     prometheus.Histogram
	scheduledHours  *prometheus.GaugeVec
	machineUtilized *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

// NewCollector creates the collector and registers it with reg. A nil reg
// uses a private registry.
func NewCollector(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	c := &Collector{
		ordersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_processed_total",
			Help:      "Total number of orders evaluated",
		}),
		ordersFeasible: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_feasible_total",
			Help:      "Total number of orders that were feasible and committed",
		}),
		ordersInfeasible: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_infeasible_total",
			Help:      "Total number of orders rejected for material or machine reasons",
		}),
		ordersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_failed_total",
			Help:      "Total number of orders that raised a processing error",
		}),
		committedCost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "committed_cost_total",
			Help:      "Total material cost of committed orders",
		}),
		feedDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_feed_degraded_total",
			Help:      "Runs that started from an empty ledger because the feed failed",
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Planning runs by outcome",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a planning run",
			Buckets:   prometheus.DefBuckets,
		}),
		scheduledHours: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "machine_scheduled_hours",
			Help:      "Hours booked per machine in the latest run",
		}, []string{"machine"}),
		machineUtilized: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "machine_utilization_percent",
			Help:      "Utilization per machine in the latest run",
		}, []string{"machine"}),
		gatherer: reg,
	}

	reg.MustRegister(
		c.ordersProcessed,
		c.ordersFeasible,
		c.ordersInfeasible,
		c.ordersFailed,
		c.committedCost,
		c.feedDegraded,
		c.runsTotal,
		c.runDuration,
		c.scheduledHours,
		c.machineUtilized,
	)
	return c
}

// RecordOrder counts one evaluated order. A feasible order is always counted
// as feasible with its cost, and also as failed when it reported an error
// after committing.
func (c *Collector) RecordOrder(feasible, failed bool, cost float64) {
	c.ordersProcessed.Inc()
	if failed {
		c.ordersFailed.Inc()
	}
	switch {
	case feasible:
		c.ordersFeasible.Inc()
		if cost > 0 {
			c.committedCost.Add(cost)
		}
	case !failed:
		c.ordersInfeasible.Inc()
	}
}

// RecordFeedDegraded counts a run that fell back to an empty ledger
func (c *Collector) RecordFeedDegraded() {
	c.feedDegraded.Inc()
}

// RecordRun observes a finished run. outcome is "completed" or "cancelled".
func (c *Collector) RecordRun(outcome string, seconds float64) {
	c.runsTotal.WithLabelValues(outcome).Inc()
	c.runDuration.Observe(seconds)
}

// SetMachineLoad publishes a machine's booking from the latest run
func (c *Collector) SetMachineLoad(machineID string, hours, utilizationPct float64) {
	c.scheduledHours.WithLabelValues(machineID).Set(hours)
	c.machineUtilized.WithLabelValues(machineID).Set(utilizationPct)
}

// Handler serves the collector's registry on /metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
