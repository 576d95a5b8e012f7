// Package telemetry exports colormatch metrics to Prometheus.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/colormatch"
)

// Compile-time check to ensure Collector satisfies colormatch.MetricsCollector.
var _ colormatch.MetricsCollector = (*Collector)(nil)

// Collector implements colormatch.MetricsCollector with Prometheus metrics.
type Collector struct {
	matchLatency *prometheus.HistogramVec
	matches      *prometheus.CounterVec
	builds       *prometheus.CounterVec
	buildNodes   prometheus.Gauge
	degrades     *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		matchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "colormatch_match_latency_seconds",
			Help:    "Latency of match operations",
			Buckets: []float64{.00001, .0001, .001, .01, .1, .5, 1, 2, 5},
		}, []string{"strategy", "status"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "colormatch_matches_total",
			Help: "Total matches by strategy and quality",
		}, []string{"strategy", "quality"}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "colormatch_index_builds_total",
			Help: "Total index builds",
		}, []string{"status"}),
		buildNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "colormatch_index_build_nodes",
			Help: "Nodes written by the last successful index build",
		}),
		degrades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "colormatch_degrades_total",
			Help: "Total switches away from the spatial index",
		}, []string{"stage"}),
	}

	reg.MustRegister(c.matchLatency, c.matches, c.builds, c.buildNodes, c.degrades)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordMatch implements colormatch.MetricsCollector.
func (c *Collector) RecordMatch(strategy colormatch.Strategy, quality colormatch.Quality, d time.Duration, err error) {
	c.matchLatency.WithLabelValues(strategy.String(), status(err)).Observe(d.Seconds())
	if err == nil {
		c.matches.WithLabelValues(strategy.String(), quality.String()).Inc()
	}
}

// RecordBuild implements colormatch.MetricsCollector.
func (c *Collector) RecordBuild(nodes int, truncated bool, _ time.Duration, err error) {
	switch {
	case err != nil:
		c.builds.WithLabelValues("error").Inc()
		return
	case truncated:
		c.builds.WithLabelValues("truncated").Inc()
	default:
		c.builds.WithLabelValues("success").Inc()
	}
	c.buildNodes.Set(float64(nodes))
}

// RecordDegrade implements colormatch.MetricsCollector.
func (c *Collector) RecordDegrade(stage string) {
	c.degrades.WithLabelValues(stage).Inc()
}

// DiagnosticsSource is implemented by *colormatch.Matcher.
type DiagnosticsSource interface {
	Diagnostics() colormatch.Diagnostics
}

// RegisterDiagnostics exports gauges read from src on every scrape.
func RegisterDiagnostics(reg prometheus.Registerer, src DiagnosticsSource) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	gauge := func(name, help string, fn func(colormatch.Diagnostics) float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "colormatch_" + name,
			Help: help,
		}, func() float64 { return fn(src.Diagnostics()) })
	}

	for _, g := range []prometheus.GaugeFunc{
		gauge("index_active", "1 while the spatial index answers matches", func(d colormatch.Diagnostics) float64 {
			if d.IndexActive {
				return 1
			}
			return 0
		}),
		gauge("index_nodes", "Nodes in the spatial index", func(d colormatch.Diagnostics) float64 {
			return float64(d.NodeCount)
		}),
		gauge("index_dropped_points", "Catalog points left out of the index", func(d colormatch.Diagnostics) float64 {
			return float64(d.Dropped)
		}),
		gauge("catalog_records", "Records declared by the catalog", func(d colormatch.Diagnostics) float64 {
			return float64(d.CatalogSize)
		}),
		gauge("memory_reserved_bytes", "Bytes reserved across both memory pools", func(d colormatch.Diagnostics) float64 {
			return float64(d.PoolUsage)
		}),
		gauge("fallback_scans", "Catalog scans run by the fallback searcher", func(d colormatch.Diagnostics) float64 {
			return float64(d.FallbackScans)
		}),
		gauge("fallback_timeouts", "Fallback scans cut short by their budget", func(d colormatch.Diagnostics) float64 {
			return float64(d.FallbackTimeouts)
		}),
		gauge("cache_hits", "Fallback result cache hits", func(d colormatch.Diagnostics) float64 {
			return float64(d.CacheHits)
		}),
	} {
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}
