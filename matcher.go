package colormatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/hupe1980/colormatch/blobstore"
	"github.com/hupe1980/colormatch/catalog"
	"github.com/hupe1980/colormatch/distance"
	"github.com/hupe1980/colormatch/index/flat"
	"github.com/hupe1980/colormatch/index/kdtree"
	"github.com/hupe1980/colormatch/internal/fallback"
	"github.com/hupe1980/colormatch/resource"
)

// Source locates a catalog blob.
type Source struct {
	// Name identifies the catalog in logs.
	Name string
	open func(ctx context.Context) (blobstore.Blob, error)
}

// FromStore reads the catalog name from store.
func FromStore(store blobstore.BlobStore, name string) Source {
	return Source{
		Name: name,
		open: func(ctx context.Context) (blobstore.Blob, error) {
			return store.Open(ctx, name)
		},
	}
}

// FromFile reads the catalog from a local file.
func FromFile(path string) Source {
	return FromStore(blobstore.NewLocalStore(filepath.Dir(path)), filepath.Base(path))
}

// FromReaderAt reads the catalog from the first size bytes of r.
func FromReaderAt(r io.ReaderAt, size int64) Source {
	return Source{
		Name: "reader",
		open: func(context.Context) (blobstore.Blob, error) {
			return readerBlob{SectionReader: io.NewSectionReader(r, 0, size)}, nil
		},
	}
}

type readerBlob struct {
	*io.SectionReader
}

func (readerBlob) Close() error { return nil }

// Diagnostics is a snapshot of the matcher state.
type Diagnostics struct {
	Strategy    Strategy
	IndexActive bool
	CatalogSize int
	Compression catalog.Compression
	// DegradeReason is empty unless the index could not be used.
	DegradeReason string

	NodeCount     int
	IndexMemory   int64
	CatalogMemory int64
	Truncated     bool
	Dropped       int

	CacheHits        int64
	CacheMisses      int64
	FallbackScans    int64
	FallbackTimeouts int64

	// PoolUsage is the memory reserved across both pools.
	PoolUsage int64
}

// Matcher finds the closest catalog colour to a reading.
//
// The search strategy is chosen once by Open and never revisited.
// A Matcher is safe for concurrent use; calls are serialized.
type Matcher struct {
	mu     sync.Mutex
	opts   options
	probe  resource.Probe
	logger *Logger

	blob        blobstore.Blob
	rs          io.ReadSeeker
	stream      *catalog.Stream
	compression catalog.Compression
	count       int

	set      *catalog.Set
	tree     *kdtree.Tree
	searcher *fallback.Searcher

	palette        *flat.Flat
	paletteRecords []catalog.Record

	strategy Strategy
	degraded error
	closed   bool
}

// Open opens the catalog at src and selects the search strategy.
//
// A *catalog.FormatError or a storage error is returned as is, unless
// WithEmergencyPalette is set and the catalog is missing or malformed.
// Every failure after the header has been validated (memory headroom,
// bulk load, sizing, build) switches the matcher to the streaming
// fallback for its lifetime; Open still succeeds.
func Open(ctx context.Context, src Source, optFns ...Option) (*Matcher, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	m := &Matcher{
		opts:   o,
		probe:  o.probe,
		logger: o.logger,
		tree:   kdtree.New(),
	}
	if m.probe == nil {
		m.probe = o.pools
	}
	if src.Name != "" {
		m.logger = m.logger.WithCatalog(src.Name)
	}

	if err := m.openCatalog(ctx, src); err != nil {
		m.release()
		if !o.emergency || !isUnavailable(err) {
			return nil, err
		}
		if perr := m.usePalette(); perr != nil {
			return nil, perr
		}
		m.logger.WarnContext(ctx, "catalog unavailable, using emergency palette", "error", err)
		return m, nil
	}

	m.searcher = fallback.New(m.stream,
		fallback.WithClock(o.clock),
		fallback.WithBudget(o.budget),
		fallback.WithCacheController(o.pools.Primary()),
		fallback.WithLogger(m.logger.Logger),
	)

	switch {
	case m.count == 0:
		m.strategy = StrategyFallback
		m.logger.WarnContext(ctx, "catalog is empty")
	case o.disableIndex:
		m.strategy = StrategyFallback
		m.logger.InfoContext(ctx, "index disabled, using streaming fallback")
	default:
		if err := m.buildIndex(ctx); err != nil {
			m.degrade(ctx, err)
		}
	}

	return m, nil
}

func isUnavailable(err error) bool {
	var fe *catalog.FormatError
	return errors.Is(err, blobstore.ErrNotFound) || errors.As(err, &fe)
}

func (m *Matcher) openCatalog(ctx context.Context, src Source) error {
	if src.open == nil {
		return fmt.Errorf("open catalog: %w", blobstore.ErrNotFound)
	}

	blob, err := src.open(ctx)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	m.blob = blob

	rs, c, err := catalog.Open(blob, blob.Size())
	if err != nil {
		return err
	}
	m.rs = rs
	m.compression = c

	stream, err := catalog.NewStream(rs, catalog.WithStreamLogger(m.logger.Logger))
	if err != nil {
		return err
	}
	m.stream = stream
	m.count = stream.Count()

	m.logger.InfoContext(ctx, "catalog opened",
		"records", m.count,
		"compression", c.String(),
	)
	return nil
}

func (m *Matcher) usePalette() error {
	idx, err := flat.New(distance.MetricCIEDE2000)
	if err != nil {
		return err
	}
	m.paletteRecords = EmergencyPalette()
	for _, rec := range m.paletteRecords {
		idx.Add(rec.R, rec.G, rec.B)
	}
	m.palette = idx
	m.strategy = StrategyEmergency
	m.opts.metricsCollector.RecordDegrade(StrategyEmergency.String())
	return nil
}

// headroom returns the free memory across both pools, saturating.
func (m *Matcher) headroom() int64 {
	aux, primary := m.probe.FreeAuxiliary(), m.probe.FreePrimary()
	if aux > math.MaxInt64-primary {
		return math.MaxInt64
	}
	return aux + primary
}

func (m *Matcher) buildIndex(ctx context.Context) error {
	need := int64(m.count)*catalog.RecordSize + m.opts.sizing.Reserve
	if free := m.headroom(); free < need {
		return &DegradeError{
			Stage: StageHeadroom,
			cause: fmt.Errorf("need %d bytes, %d free: %w", need, free, kdtree.ErrInsufficientMemory),
		}
	}

	set, err := m.load()
	if err != nil {
		return &DegradeError{Stage: StageLoad, cause: err}
	}
	m.set = set

	n, err := kdtree.Size(m.opts.sizing, set.Len(), m.probe.FreeAuxiliary())
	if err != nil {
		m.releaseIndex()
		return &DegradeError{Stage: StageSizing, cause: err}
	}

	points := make([]kdtree.Point, n)
	for i, rec := range set.Records[:n] {
		points[i] = kdtree.Point{R: rec.R, G: rec.G, B: rec.B, Ref: uint32(i)} //nolint:gosec // n is capped by sizing
	}

	start := time.Now()
	err = m.tree.Build(points,
		kdtree.WithAllocator(m.opts.pools.Allocator()),
		kdtree.WithProbe(m.probe),
		kdtree.WithReserve(m.opts.sizing.Reserve),
		kdtree.WithYield(m.opts.yield),
		kdtree.WithLogger(m.logger.Logger),
	)
	elapsed := time.Since(start)

	m.opts.metricsCollector.RecordBuild(m.tree.NodeCount(), m.tree.Truncated(), elapsed, err)
	m.logger.LogBuild(ctx, m.tree.NodeCount(), m.tree.Truncated(), elapsed, err)

	if err != nil {
		m.releaseIndex()
		return &DegradeError{Stage: StageBuild, cause: err}
	}

	m.strategy = StrategyIndex
	return nil
}

// load materializes the catalog from the start of the shared view. The
// stream seeks back to its records before every scan.
func (m *Matcher) load() (*catalog.Set, error) {
	if _, err := m.rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return catalog.Load(m.rs,
		catalog.WithAllocator(m.opts.pools.Allocator()),
		catalog.WithLoadLogger(m.logger.Logger),
	)
}

func (m *Matcher) degrade(ctx context.Context, err error) {
	m.strategy = StrategyFallback
	m.degraded = err

	stage := ""
	var de *DegradeError
	if errors.As(err, &de) {
		stage = de.Stage
	}
	m.opts.metricsCollector.RecordDegrade(stage)
	m.logger.LogDegrade(ctx, err)
}

// Match returns the catalog colour closest to (r, g, b).
//
// It returns ErrNoMatch only when the catalog holds no readable record.
func (m *Matcher) Match(r, g, b uint8) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Result{}, ErrClosed
	}

	start := time.Now()
	res, err := m.match(r, g, b)
	m.opts.metricsCollector.RecordMatch(m.strategy, res.Quality, time.Since(start), err)
	m.logger.LogMatch(context.Background(), r, g, b, res, err)

	return res, err
}

func (m *Matcher) match(r, g, b uint8) (Result, error) {
	switch m.strategy {
	case StrategyIndex:
		p, ok := m.tree.Nearest(r, g, b)
		if !ok {
			return Result{}, ErrNoMatch
		}
		return m.result(r, g, b, m.set.Records[p.Ref]), nil
	case StrategyEmergency:
		hit, ok := m.palette.Search(r, g, b)
		if !ok {
			return Result{}, ErrNoMatch
		}
		return m.result(r, g, b, m.paletteRecords[hit.Ref]), nil
	default:
		rec, _, ok := m.searcher.FindClosest(r, g, b)
		if !ok {
			return Result{}, ErrNoMatch
		}
		return m.result(r, g, b, rec), nil
	}
}

func (m *Matcher) result(r, g, b uint8, rec catalog.Record) Result {
	d := distance.Perceptual(r, g, b, rec.R, rec.G, rec.B)
	return Result{
		Label:    rec.Label(),
		Record:   rec,
		Distance: d,
		Quality:  GradeDistance(d),
		Strategy: m.strategy,
	}
}

// Strategy returns the strategy selected by Open.
func (m *Matcher) Strategy() Strategy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.strategy
}

// Diagnostics returns a snapshot of the matcher state.
func (m *Matcher) Diagnostics() Diagnostics {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := Diagnostics{
		Strategy:    m.strategy,
		IndexActive: m.strategy == StrategyIndex && !m.closed,
		CatalogSize: m.count,
		Compression: m.compression,
		NodeCount:   m.tree.NodeCount(),
		IndexMemory: m.tree.MemoryUsage(),
		Truncated:   m.tree.Truncated(),
		Dropped:     m.tree.Dropped(),
		PoolUsage:   m.opts.pools.Used(),
	}
	if m.degraded != nil {
		d.DegradeReason = m.degraded.Error()
	}
	if m.set != nil {
		d.CatalogMemory = m.set.MemoryUsage()
	}
	if m.searcher != nil {
		d.CacheHits, d.CacheMisses = m.searcher.Stats()
		d.FallbackScans = m.searcher.Scans()
		d.FallbackTimeouts = m.searcher.Timeouts()
	}
	if m.strategy == StrategyEmergency {
		d.CatalogSize = len(m.paletteRecords)
	}
	return d
}

// Close releases the index, the cache and the catalog stream.
// It is safe to call more than once.
func (m *Matcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	return m.release()
}

func (m *Matcher) releaseIndex() {
	m.tree.Clear()
	if m.set != nil {
		m.set.Release()
		m.set = nil
	}
}

func (m *Matcher) release() error {
	m.releaseIndex()
	if m.searcher != nil {
		m.searcher.Purge()
	}

	var errs []error
	if m.stream != nil {
		errs = append(errs, m.stream.Close())
		m.stream = nil
	}
	if m.blob != nil {
		errs = append(errs, m.blob.Close())
		m.blob = nil
	}
	m.rs = nil
	return errors.Join(errs...)
}
