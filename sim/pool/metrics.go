package pool

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "lhsim"

const poolSubsystem = "pool"

// Collector exports pool Stats as Prometheus metrics.
type Collector struct {
	pool        *Pool
	workers     *prometheus.Desc
	joins       *prometheus.Desc
	inlined     *prometheus.Desc
	stolen      *prometheus.Desc
	suspensions *prometheus.Desc
	blocks      *prometheus.Desc
	units       *prometheus.Desc
}

// NewCollector creates a collector reading from p on every scrape.
func NewCollector(p *Pool) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, poolSubsystem, name), help, nil, nil)
	}
	return &Collector{
		pool:        p,
		workers:     desc("workers", "Number of worker slots."),
		joins:       desc("joins_total", "Join calls."),
		inlined:     desc("inlined_total", "Join operands reclaimed and run by the caller."),
		stolen:      desc("stolen_total", "Join operands run by an idle worker."),
		suspensions: desc("suspensions_total", "Cooperative suspensions."),
		blocks:      desc("blocks_total", "Blocking delays that held a worker."),
		units:       desc("units_spawned_total", "Suspension-capable units spawned."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.workers
	ch <- c.joins
	ch <- c.inlined
	ch <- c.stolen
	ch <- c.suspensions
	ch <- c.blocks
	ch <- c.units
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stats()
	ch <- prometheus.MustNewConstMetric(c.workers, prometheus.GaugeValue, float64(s.Workers))
	ch <- prometheus.MustNewConstMetric(c.joins, prometheus.CounterValue, float64(s.Joins))
	ch <- prometheus.MustNewConstMetric(c.inlined, prometheus.CounterValue, float64(s.Inlined))
	ch <- prometheus.MustNewConstMetric(c.stolen, prometheus.CounterValue, float64(s.Stolen))
	ch <- prometheus.MustNewConstMetric(c.suspensions, prometheus.CounterValue, float64(s.Suspensions))
	ch <- prometheus.MustNewConstMetric(c.blocks, prometheus.CounterValue, float64(s.Blocks))
	ch <- prometheus.MustNewConstMetric(c.units, prometheus.CounterValue, float64(s.Units))
}
