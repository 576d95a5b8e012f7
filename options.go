package colormatch

import (
	"runtime"
	"time"

	"github.com/hupe1980/colormatch/index/kdtree"
	"github.com/hupe1980/colormatch/internal/fallback"
	"github.com/hupe1980/colormatch/resource"
)

// Clock returns monotonic milliseconds. It drives the fallback scan budget.
type Clock = fallback.Clock

type options struct {
	pools            *resource.Pools
	probe            resource.Probe
	sizing           kdtree.SizingConfig
	clock            Clock
	budget           time.Duration
	yield            func()
	logger           *Logger
	metricsCollector MetricsCollector
	emergency        bool
	disableIndex     bool
}

// Option configures Open.
type Option func(*options)

func defaultOptions() options {
	return options{
		pools:            resource.NewPools(resource.DefaultAuxiliaryBytes, resource.DefaultPrimaryBytes),
		sizing:           kdtree.DefaultSizingConfig(),
		clock:            fallback.NewMonotonicClock(),
		budget:           fallback.DefaultBudget,
		yield:            runtime.Gosched,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
}

// WithPools sets the memory pools the catalog, the index and the result
// cache are reserved from. By default the pools of the reference device
// (8 MiB auxiliary, 320 KiB primary) are used.
func WithPools(p *resource.Pools) Option {
	return func(o *options) {
		if p != nil {
			o.pools = p
		}
	}
}

// WithProbe sets the free-memory probe consulted by the headroom check,
// sizing and the build reserve. It defaults to the configured pools.
func WithProbe(p resource.Probe) Option {
	return func(o *options) { o.probe = p }
}

// WithSizing overrides the index sizing limits.
func WithSizing(cfg kdtree.SizingConfig) Option {
	return func(o *options) { o.sizing = cfg }
}

// WithClock sets the clock of the fallback scan budget.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithSearchBudget sets the wall-clock budget of one fallback scan.
func WithSearchBudget(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.budget = d
		}
	}
}

// WithYield sets the cooperative yield hook called during index builds.
func WithYield(fn func()) Option {
	return func(o *options) {
		if fn != nil {
			o.yield = fn
		}
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging (NoopLogger is used).
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &colormatch.BasicMetricsCollector{}
//	m, _ := colormatch.Open(ctx, src, colormatch.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithEmergencyPalette answers from the built-in ten-colour palette when the
// catalog is missing or unreadable, instead of failing Open.
func WithEmergencyPalette() Option {
	return func(o *options) { o.emergency = true }
}

// WithoutIndex skips the bulk load and serves every match with the
// streaming fallback.
func WithoutIndex() Option {
	return func(o *options) { o.disableIndex = true }
}
