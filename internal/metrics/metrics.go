// Package metrics exports analysis run statistics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records one observation per completed analysis run.
type Collector struct {
	registry *prometheus.Registry

	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
	patterns        *prometheus.CounterVec
	rings           prometheus.Counter
	accountsFlagged prometheus.Counter
	persistFailures prometheus.Counter
}

// NewCollector builds a collector on its own registry, together with the Go
// runtime and process collectors.
func NewCollector(namespace string) (*Collector, error) {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_runs_total",
				Help:      "Total number of analysis runs by outcome",
			},
			[]string{"outcome"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Wall time of successful analysis runs",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30},
			},
		),
		patterns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "patterns_detected_total",
				Help:      "Total number of raw patterns found per detector",
			},
			[]string{"type"},
		),
		rings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fraud_rings_total",
				Help:      "Total number of fraud rings reported",
			},
		),
		accountsFlagged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "accounts_flagged_total",
				Help:      "Total number of suspicious accounts reported",
			},
		),
		persistFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persist_failures_total",
				Help:      "Total number of report items that failed to persist",
			},
		),
	}

	for _, collector := range []prometheus.Collector{
		c.runs,
		c.runDuration,
		c.patterns,
		c.rings,
		c.accountsFlagged,
		c.persistFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := c.registry.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordRun records a successful run.
func (c *Collector) RecordRun(duration time.Duration, patternCounts map[string]int, rings, flagged int) {
	c.runs.WithLabelValues("success").Inc()
	c.runDuration.Observe(duration.Seconds())
	for typ, n := range patternCounts {
		c.patterns.WithLabelValues(typ).Add(float64(n))
	}
	c.rings.Add(float64(rings))
	c.accountsFlagged.Add(float64(flagged))
}

// RecordFailure records a run that returned an error.
func (c *Collector) RecordFailure() {
	c.runs.WithLabelValues("error").Inc()
}

// RecordPersistFailures counts report items the store rejected.
func (c *Collector) RecordPersistFailures(n int) {
	c.persistFailures.Add(float64(n))
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// NoOp discards every observation.
type NoOp struct{}

// RecordRun does nothing.
func (NoOp) RecordRun(time.Duration, map[string]int, int, int) {}

// RecordFailure does nothing.
func (NoOp) RecordFailure() {}

// RecordPersistFailures does nothing.
func (NoOp) RecordPersistFailures(int) {}
