// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

// Package metrics exports the statistics of checks as Prometheus metrics.
package metrics

import (
	"io"

	"github.com/dalzilio/mdd"
	"github.com/dalzilio/mdd/checker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const (
	StrategyLabel = "strategy"
	ResultLabel   = "result"
)

// Collector holds the metrics of a sequence of checks. It implements
// checker.Observer.
type Collector struct {
	checks    *prometheus.CounterVec
	hits      prometheus.Counter
	queries   prometheus.Counter
	oracle    prometheus.Counter
	states    prometheus.Gauge
	violating prometheus.Gauge
	duration  *prometheus.HistogramVec
}

// New returns a collector whose metrics are not registered yet.
func New() *Collector {
	return &Collector{
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mddcheck_checks_total",
				Help: "Number of completed checks",
			},
			[]string{StrategyLabel, ResultLabel},
		),
		hits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mddcheck_cache_hits_total",
				Help: "Lookups answered by the cache of the enumeration providers",
			},
		),
		queries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mddcheck_cache_queries_total",
				Help: "Lookups in the cache of the enumeration providers",
			},
		),
		oracle: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mddcheck_oracle_checks_total",
				Help: "Satisfiability checks sent to the oracle during compilation",
			},
		),
		states: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mddcheck_state_space_size",
				Help: "Number of states explored by the last check",
			},
		),
		violating: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mddcheck_violating_states",
				Help: "Number of violating states found by the last check",
			},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mddcheck_check_duration_seconds",
				Help:    "The duration of a check",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{StrategyLabel},
		),
	}
}

// Register adds the metrics of c to r.
func (c *Collector) Register(r prometheus.Registerer) error {
	for _, m := range []prometheus.Collector{c.checks, c.hits, c.queries, c.oracle, c.states, c.violating, c.duration} {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// ObserveCheck records the outcome of a check.
func (c *Collector) ObserveCheck(s mdd.Strategy, status checker.Status, stats checker.Statistics) {
	c.checks.WithLabelValues(s.String(), status.String()).Inc()
	c.hits.Add(float64(stats.CacheHits))
	c.queries.Add(float64(stats.CacheQueries))
	c.oracle.Add(float64(stats.OracleChecks))
	c.states.Set(float64(stats.StateSpaceSize))
	c.violating.Set(float64(stats.ViolatingSize))
	c.duration.WithLabelValues(s.String()).Observe(stats.Duration.Seconds())
}

// WriteText writes the metrics gathered by g in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
