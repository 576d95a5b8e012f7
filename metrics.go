package colormatch

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus;
// the telemetry package ships one.
type MetricsCollector interface {
	// RecordMatch is called after each match.
	// err is nil if a colour was found.
	RecordMatch(strategy Strategy, quality Quality, duration time.Duration, err error)

	// RecordBuild is called once per index build attempt.
	RecordBuild(nodes int, truncated bool, duration time.Duration, err error)

	// RecordDegrade is called when the matcher switches to the fallback scan.
	RecordDegrade(stage string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordMatch(Strategy, Quality, time.Duration, error) {}
func (NoopMetricsCollector) RecordBuild(int, bool, time.Duration, error)         {}
func (NoopMetricsCollector) RecordDegrade(string)                                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	MatchCount      atomic.Int64
	MatchErrors     atomic.Int64
	MatchTotalNanos atomic.Int64
	FallbackMatches atomic.Int64
	BuildCount      atomic.Int64
	BuildErrors     atomic.Int64
	BuildNodes      atomic.Int64
	TruncatedBuilds atomic.Int64
	DegradeCount    atomic.Int64
}

// RecordMatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMatch(strategy Strategy, _ Quality, duration time.Duration, err error) {
	b.MatchCount.Add(1)
	b.MatchTotalNanos.Add(duration.Nanoseconds())
	if strategy == StrategyFallback {
		b.FallbackMatches.Add(1)
	}
	if err != nil {
		b.MatchErrors.Add(1)
	}
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(nodes int, truncated bool, _ time.Duration, err error) {
	b.BuildCount.Add(1)
	if err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.BuildNodes.Add(int64(nodes))
	if truncated {
		b.TruncatedBuilds.Add(1)
	}
}

// RecordDegrade implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDegrade(string) {
	b.DegradeCount.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		MatchCount:      b.MatchCount.Load(),
		MatchErrors:     b.MatchErrors.Load(),
		MatchAvgNanos:   b.getAvgMatchNanos(),
		FallbackMatches: b.FallbackMatches.Load(),
		BuildCount:      b.BuildCount.Load(),
		BuildErrors:     b.BuildErrors.Load(),
		BuildNodes:      b.BuildNodes.Load(),
		TruncatedBuilds: b.TruncatedBuilds.Load(),
		DegradeCount:    b.DegradeCount.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgMatchNanos() int64 {
	count := b.MatchCount.Load()
	if count == 0 {
		return 0
	}
	return b.MatchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	MatchCount      int64
	MatchErrors     int64
	MatchAvgNanos   int64
	FallbackMatches int64
	BuildCount      int64
	BuildErrors     int64
	BuildNodes      int64
	TruncatedBuilds int64
	DegradeCount    int64
}
