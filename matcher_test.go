package colormatch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/colormatch/blobstore"
	"github.com/hupe1980/colormatch/catalog"
	"github.com/hupe1980/colormatch/distance"
	"github.com/hupe1980/colormatch/resource"
	"github.com/hupe1980/colormatch/testutil"
)

type staticProbe struct {
	aux, primary int64
}

func (p staticProbe) FreeAuxiliary() int64 { return p.aux }
func (p staticProbe) FreePrimary() int64   { return p.primary }

// stepClock advances by step on every reading.
type stepClock struct {
	now, step int64
}

func (c *stepClock) NowMillis() int64 {
	v := c.now
	c.now += c.step
	return v
}

func openRecords(t *testing.T, recs []catalog.Record, opts ...Option) *Matcher {
	t.Helper()
	data := testutil.EncodeCatalog(t, recs)
	m, err := Open(context.Background(), FromReaderAt(bytes.NewReader(data), int64(len(data))), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func payload(recs []catalog.Record) int64 {
	var n int64
	for _, r := range recs {
		n += int64(len(r.Name) + len(r.Code))
	}
	return n
}

func TestMatch_WhiteBlackRed(t *testing.T) {
	recs := []catalog.Record{
		{R: 255, G: 255, B: 255, Name: "White", Code: "W1", ID: 1},
		{R: 0, G: 0, B: 0, Name: "Black", Code: "B1", ID: 2},
		{R: 255, G: 0, B: 0, Name: "Red", ID: 3},
	}

	modes := []struct {
		name     string
		opts     []Option
		strategy Strategy
	}{
		{"index", nil, StrategyIndex},
		{"fallback", []Option{WithoutIndex()}, StrategyFallback},
	}

	queries := []struct {
		r, g, b uint8
		want    string
	}{
		{250, 250, 250, "White (W1)"},
		{5, 5, 5, "Black (B1)"},
		{250, 5, 5, "Red"},
	}

	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			m := openRecords(t, recs, mode.opts...)
			require.Equal(t, mode.strategy, m.Strategy())

			for _, q := range queries {
				res, err := m.Match(q.r, q.g, q.b)
				require.NoError(t, err)
				assert.Equal(t, q.want, res.Label)
				assert.Equal(t, mode.strategy, res.Strategy)
				assert.InDelta(t, distance.Perceptual(q.r, q.g, q.b, res.Record.R, res.Record.G, res.Record.B), res.Distance, 1e-9)
				assert.Equal(t, GradeDistance(res.Distance), res.Quality)
			}
		})
	}
}

func TestMatch_IndexAgreesWithBruteForce(t *testing.T) {
	recs := testutil.NewRNG(42).Records(1000)
	m := openRecords(t, recs)

	d := m.Diagnostics()
	require.True(t, d.IndexActive)
	assert.Equal(t, 1000, d.NodeCount)
	assert.False(t, d.Truncated)

	rng := testutil.NewRNG(43)
	for range 200 {
		r, g, b := rng.RGB()
		res, err := m.Match(r, g, b)
		require.NoError(t, err)

		want := testutil.BruteForceSquared(recs, r, g, b)
		got := distance.SquaredRGB(r, g, b, res.Record.R, res.Record.G, res.Record.B)
		assert.Equal(t, want.Distance, float64(got))
	}
}

func TestOpen_Degrade(t *testing.T) {
	recs := testutil.NewRNG(7).Records(200)
	loadBytes := int64(len(recs))*catalog.RecordSize + payload(recs)

	tests := []struct {
		name  string
		data  []byte
		opts  []Option
		stage string
	}{
		{
			name:  "headroom",
			opts:  []Option{WithPools(resource.NewPools(1<<10, 1<<10))},
			stage: StageHeadroom,
		},
		{
			name: "load",
			data: func() []byte {
				data := testutil.EncodeCatalog(t, recs)
				return data[:len(data)-3]
			}(),
			stage: StageLoad,
		},
		{
			name:  "sizing",
			opts:  []Option{WithProbe(staticProbe{aux: 0, primary: 1 << 30})},
			stage: StageSizing,
		},
		{
			name: "build",
			opts: []Option{
				WithPools(resource.NewPools(loadBytes, 1)),
				WithProbe(staticProbe{aux: 1 << 30}),
			},
			stage: StageBuild,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.data
			if data == nil {
				data = testutil.EncodeCatalog(t, recs)
			}

			var logs bytes.Buffer
			metrics := &BasicMetricsCollector{}
			opts := append([]Option{
				WithLogger(NewLogger(slog.NewTextHandler(&logs, nil))),
				WithMetricsCollector(metrics),
			}, tt.opts...)

			m, err := Open(context.Background(), FromReaderAt(bytes.NewReader(data), int64(len(data))), opts...)
			require.NoError(t, err)
			defer m.Close()

			require.Equal(t, StrategyFallback, m.Strategy())

			var de *DegradeError
			require.ErrorAs(t, m.degraded, &de)
			assert.Equal(t, tt.stage, de.Stage)
			assert.Contains(t, m.Diagnostics().DegradeReason, tt.stage)
			assert.Contains(t, logs.String(), "using streaming fallback")
			assert.Equal(t, int64(1), metrics.GetStats().DegradeCount)

			// Nothing of the abandoned index stays reserved.
			d := m.Diagnostics()
			assert.False(t, d.IndexActive)
			assert.Zero(t, d.NodeCount)
			assert.Zero(t, d.CatalogMemory)

			res, err := m.Match(recs[0].R, recs[0].G, recs[0].B)
			require.NoError(t, err)
			assert.Equal(t, StrategyFallback, res.Strategy)
			assert.Zero(t, res.Distance)
		})
	}
}

func TestOpen_BuildFailureReleasesPools(t *testing.T) {
	recs := testutil.NewRNG(8).Records(200)
	pools := resource.NewPools(int64(len(recs))*catalog.RecordSize+payload(recs), 1)

	m := openRecords(t, recs, WithPools(pools), WithProbe(staticProbe{aux: 1 << 30}))

	require.Equal(t, StrategyFallback, m.Strategy())
	assert.ErrorIs(t, m.degraded, resource.ErrMemoryLimitExceeded)
	assert.Zero(t, pools.Used())
}

func TestOpen_EmptyCatalog(t *testing.T) {
	m := openRecords(t, nil)

	assert.Equal(t, StrategyFallback, m.Strategy())
	assert.Empty(t, m.Diagnostics().DegradeReason)

	_, err := m.Match(1, 2, 3)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestOpen_CatalogUnavailable(t *testing.T) {
	bad := testutil.EncodeCatalog(t, testutil.NewRNG(1).Records(3))
	bad[0] ^= 0xFF

	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "bad.bin", bad))

	tests := []struct {
		name    string
		src     Source
		wantErr func(error) bool
	}{
		{"missing", FromStore(store, "missing.bin"), func(err error) bool { return errors.Is(err, blobstore.ErrNotFound) }},
		{"bad magic", FromStore(store, "bad.bin"), func(err error) bool {
			var fe *catalog.FormatError
			return errors.As(err, &fe) && errors.Is(err, catalog.ErrBadMagic)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.src)
			require.Error(t, err)
			assert.True(t, tt.wantErr(err), "unexpected error: %v", err)

			m, err := Open(context.Background(), tt.src, WithEmergencyPalette())
			require.NoError(t, err)
			defer m.Close()

			assert.Equal(t, StrategyEmergency, m.Strategy())
			assert.Equal(t, 10, m.Diagnostics().CatalogSize)

			res, err := m.Match(255, 255, 255)
			require.NoError(t, err)
			assert.Equal(t, "Pure Brilliant White (10BB83)", res.Label)
			assert.Equal(t, QualityExcellent, res.Quality)

			res, err = m.Match(220, 60, 58)
			require.NoError(t, err)
			assert.Equal(t, "Bright Red (10YR68)", res.Label)
		})
	}
}

func TestOpen_CompressedCatalog(t *testing.T) {
	recs := testutil.NewRNG(11).Records(300)

	for _, c := range []catalog.Compression{catalog.CompressionZstd, catalog.CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := catalog.NewCompressor(&buf, c)
			require.NoError(t, err)
			require.NoError(t, catalog.Encode(w, recs))
			require.NoError(t, w.Close())

			store := blobstore.NewMemoryStore()
			require.NoError(t, store.Put(context.Background(), "paint.bin", buf.Bytes()))

			m, err := Open(context.Background(), FromStore(store, "paint.bin"))
			require.NoError(t, err)
			defer m.Close()

			d := m.Diagnostics()
			assert.Equal(t, c, d.Compression)
			assert.Equal(t, 300, d.CatalogSize)
			assert.True(t, d.IndexActive)

			res, err := m.Match(recs[17].R, recs[17].G, recs[17].B)
			require.NoError(t, err)
			assert.Zero(t, res.Distance)
		})
	}
}

func TestMatcher_Close(t *testing.T) {
	pools := resource.NewPools(resource.DefaultAuxiliaryBytes, resource.DefaultPrimaryBytes)
	recs := testutil.NewRNG(3).Records(100)
	data := testutil.EncodeCatalog(t, recs)

	m, err := Open(context.Background(), FromReaderAt(bytes.NewReader(data), int64(len(data))), WithPools(pools))
	require.NoError(t, err)
	require.Positive(t, pools.Used())

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Zero(t, pools.Used())

	_, err = m.Match(1, 2, 3)
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, m.Diagnostics().IndexActive)
}

func TestMatch_FallbackCacheAndTimeout(t *testing.T) {
	recs := testutil.NewRNG(5).Records(50)
	m := openRecords(t, recs, WithoutIndex(), WithClock(&stepClock{step: 1000}))

	_, err := m.Match(10, 20, 30)
	require.NoError(t, err)
	_, err = m.Match(10, 20, 30)
	require.NoError(t, err)

	d := m.Diagnostics()
	assert.Equal(t, int64(1), d.FallbackScans)
	assert.Equal(t, int64(1), d.FallbackTimeouts)
	assert.Equal(t, int64(1), d.CacheHits)
	assert.Equal(t, int64(1), d.CacheMisses)
}

func TestMatch_FallbackSlowFirstRead(t *testing.T) {
	recs := testutil.NewRNG(6).Records(20)
	m := openRecords(t, recs, WithoutIndex(), WithClock(&stepClock{step: 3000}))

	res, err := m.Match(250, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, recs[0], res.Record)
	assert.Equal(t, StrategyFallback, res.Strategy)
	assert.Equal(t, int64(1), m.Diagnostics().FallbackTimeouts)
}

func TestOpen_MetricsAndYield(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	yields := 0

	m := openRecords(t, testutil.NewRNG(9).Records(1200),
		WithMetricsCollector(metrics),
		WithYield(func() { yields++ }),
	)

	for range 3 {
		_, err := m.Match(100, 150, 200)
		require.NoError(t, err)
	}

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.BuildCount)
	assert.Equal(t, int64(1200), stats.BuildNodes)
	assert.Equal(t, int64(3), stats.MatchCount)
	assert.Zero(t, stats.FallbackMatches)
	assert.Zero(t, stats.DegradeCount)
	assert.Equal(t, 2, yields)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		r, g, b uint8
		want    string
	}{
		{230, 230, 230, "Light Color"},
		{10, 20, 30, "Dark Color"},
		{200, 40, 40, "Red Tone"},
		{40, 200, 40, "Green Tone"},
		{40, 40, 200, "Blue Tone"},
		{120, 120, 60, "Mixed Color"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.r, tt.g, tt.b))
		})
	}
}

func TestGradeDistance(t *testing.T) {
	assert.Equal(t, QualityExcellent, GradeDistance(0.99))
	assert.Equal(t, QualityGood, GradeDistance(1))
	assert.Equal(t, QualityFair, GradeDistance(5.9))
	assert.Equal(t, QualityPoor, GradeDistance(6))
	assert.Equal(t, "fair", QualityFair.String())
	assert.Equal(t, "emergency", StrategyEmergency.String())
	assert.Equal(t, "Unknown(9)", Strategy(9).String())
}
