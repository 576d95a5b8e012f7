package fallback

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/colormatch/catalog"
	"github.com/hupe1980/colormatch/distance"
	"github.com/hupe1980/colormatch/internal/cache"
	"github.com/hupe1980/colormatch/resource"
)

// Defaults of the reference firmware.
const (
	DefaultLightThreshold  = 200
	DefaultEuclideanExit   = 3.0
	DefaultPerceptualExit  = 1.0
	DefaultBudget          = 2000 * time.Millisecond
	DefaultProgressEvery   = 2000
	DefaultCacheSize       = 1
	cachedEntryStringBytes = 64 + 16
)

// Clock returns monotonic milliseconds.
type Clock interface {
	NowMillis() int64
}

type monotonicClock struct{ start time.Time }

func (c monotonicClock) NowMillis() int64 { return time.Since(c.start).Milliseconds() }

// NewMonotonicClock returns a Clock counting from now.
func NewMonotonicClock() Clock { return monotonicClock{start: time.Now()} }

// Source is the record stream a Searcher scans.
type Source interface {
	Reset() error
	Next() (catalog.Record, error)
}

type options struct {
	clock          Clock
	budget         time.Duration
	lightThreshold uint8
	euclideanExit  float64
	perceptualExit float64
	cacheSize      int
	cacheRC        *resource.Controller
	logger         *slog.Logger
}

// Option configures a Searcher.
type Option func(*options)

// WithClock sets the clock used for the scan budget.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithBudget sets the wall-clock budget of a single scan.
func WithBudget(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.budget = d
		}
	}
}

// WithLightThreshold sets the channel value above which a colour counts as light.
func WithLightThreshold(v uint8) Option {
	return func(o *options) { o.lightThreshold = v }
}

// WithEarlyExit sets the distances below which a scan stops.
func WithEarlyExit(euclidean, perceptual float64) Option {
	return func(o *options) {
		o.euclideanExit = euclidean
		o.perceptualExit = perceptual
	}
}

// WithCacheSize sets the number of cached query results.
func WithCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// WithCacheController accounts cached results against rc.
func WithCacheController(rc *resource.Controller) Option {
	return func(o *options) { o.cacheRC = rc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

type cached struct {
	rec  catalog.Record
	dist float64
}

// Searcher finds the closest record by scanning a Source.
// It is not safe for concurrent use.
type Searcher struct {
	src   Source
	cache *cache.LRU[[3]uint8, cached]
	opts  options

	scans    atomic.Int64
	timeouts atomic.Int64
}

// New returns a Searcher over src.
func New(src Source, opts ...Option) *Searcher {
	o := options{
		clock:          NewMonotonicClock(),
		budget:         DefaultBudget,
		lightThreshold: DefaultLightThreshold,
		euclideanExit:  DefaultEuclideanExit,
		perceptualExit: DefaultPerceptualExit,
		cacheSize:      DefaultCacheSize,
		logger:         slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Searcher{
		src:   src,
		cache: cache.NewLRU[[3]uint8, cached](o.cacheSize, catalog.RecordSize+cachedEntryStringBytes, o.cacheRC),
		opts:  o,
	}
}

func (s *Searcher) isLight(r, g, b uint8) bool {
	t := s.opts.lightThreshold
	return r > t && g > t && b > t
}

// FindClosest returns the closest record to (r, g, b) and its distance.
//
// The distance is Euclidean RGB when both colours are light, CIEDE2000
// otherwise. It returns false only when no record could be read.
func (s *Searcher) FindClosest(r, g, b uint8) (catalog.Record, float64, bool) {
	key := [3]uint8{r, g, b}
	if c, ok := s.cache.Get(key); ok {
		return c.rec, c.dist, true
	}

	if err := s.src.Reset(); err != nil {
		s.opts.logger.Warn("fallback scan: reset failed", "error", err)
		return catalog.Record{}, 0, false
	}

	s.scans.Add(1)

	targetLight := s.isLight(r, g, b)
	targetLab := distance.RGBToLab(r, g, b)
	budget := s.opts.budget.Milliseconds()
	start := s.opts.clock.NowMillis()
	progress := rate.Sometimes{Every: DefaultProgressEvery}

	var best catalog.Record
	bestDist := 0.0
	found := false
	checked := 0

	for {
		rec, err := s.src.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.opts.logger.Warn("fallback scan: read failed", "checked", checked, "error", err)
			}
			break
		}

		// The budget never leaves a non-empty scan without a candidate.
		if s.opts.clock.NowMillis()-start > budget && found {
			s.timeouts.Add(1)
			s.opts.logger.Warn("fallback scan timed out", "budget_ms", budget, "checked", checked)
			break
		}

		var d float64
		exit := s.opts.perceptualExit
		if targetLight && s.isLight(rec.R, rec.G, rec.B) {
			d = distance.EuclideanRGB(r, g, b, rec.R, rec.G, rec.B)
			exit = s.opts.euclideanExit
		} else {
			d = distance.CIEDE2000(targetLab, distance.RGBToLab(rec.R, rec.G, rec.B))
		}

		if !found || d < bestDist {
			best, bestDist, found = rec, d, true
			if d < exit {
				checked++
				s.opts.logger.Debug("fallback scan: close match, stopping", "label", rec.Label(), "distance", d)
				break
			}
		}

		checked++
		progress.Do(func() {
			s.opts.logger.Debug("fallback scan progress", "checked", checked)
		})
	}

	if !found {
		return catalog.Record{}, 0, false
	}

	s.cache.Set(key, cached{rec: best, dist: bestDist})
	s.opts.logger.Debug("fallback scan completed", "label", best.Label(), "distance", bestDist, "checked", checked)

	return best, bestDist, true
}

// Scans returns the number of catalog scans executed.
func (s *Searcher) Scans() int64 { return s.scans.Load() }

// Timeouts returns the number of scans cut short by the budget.
func (s *Searcher) Timeouts() int64 { return s.timeouts.Load() }

// Stats returns cache hits and misses.
func (s *Searcher) Stats() (hits, misses int64) { return s.cache.Stats() }

// Purge drops cached results.
func (s *Searcher) Purge() { s.cache.Purge() }
