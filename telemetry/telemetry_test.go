package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/colormatch"
	"github.com/hupe1980/colormatch/testutil"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordMatch(colormatch.StrategyIndex, colormatch.QualityGood, time.Millisecond, nil)
	c.RecordMatch(colormatch.StrategyIndex, colormatch.QualityGood, time.Millisecond, nil)
	c.RecordMatch(colormatch.StrategyFallback, colormatch.QualityPoor, time.Second, errors.New("boom"))
	c.RecordBuild(300, true, time.Millisecond, nil)
	c.RecordBuild(0, false, time.Millisecond, errors.New("no memory"))
	c.RecordDegrade(colormatch.StageSizing)

	assert.InDelta(t, 2, promtest.ToFloat64(c.matches.WithLabelValues("index", "good")), 0)
	assert.InDelta(t, 0, promtest.ToFloat64(c.matches.WithLabelValues("fallback", "poor")), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(c.builds.WithLabelValues("truncated")), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(c.builds.WithLabelValues("error")), 0)
	assert.InDelta(t, 300, promtest.ToFloat64(c.buildNodes), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(c.degrades.WithLabelValues("sizing")), 0)
	assert.Equal(t, 2, promtest.CollectAndCount(c.matchLatency))
}

func TestRegisterDiagnostics(t *testing.T) {
	recs := testutil.NewRNG(1).Records(120)
	data := testutil.EncodeCatalog(t, recs)

	reg := prometheus.NewRegistry()
	m, err := colormatch.Open(context.Background(),
		colormatch.FromReaderAt(bytes.NewReader(data), int64(len(data))),
		colormatch.WithMetricsCollector(NewCollector(reg)),
	)
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, RegisterDiagnostics(reg, m))

	n, err := promtest.GatherAndCount(reg, "colormatch_index_nodes", "colormatch_index_active", "colormatch_index_builds_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "colormatch_index_nodes" {
			assert.InDelta(t, 120, mf.GetMetric()[0].GetGauge().GetValue(), 0)
		}
	}

	// Registering twice collides.
	assert.Error(t, RegisterDiagnostics(reg, m))
}
