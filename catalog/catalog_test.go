package catalog_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/colormatch/catalog"
	"github.com/hupe1980/colormatch/codec"
	"github.com/hupe1980/colormatch/resource"
	"github.com/hupe1980/colormatch/testutil"
)

func TestRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 500, 4500} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			recs := testutil.NewRNG(int64(n)).Records(n)
			blob := testutil.EncodeCatalog(t, recs)

			set, err := catalog.Load(bytes.NewReader(blob))
			require.NoError(t, err)
			assert.Equal(t, n, set.Len())
			assert.Equal(t, uint32(n), set.Header.Count)
			if n > 0 {
				assert.Equal(t, recs, set.Records)
			}

			s, err := catalog.NewStream(bytes.NewReader(blob))
			require.NoError(t, err)
			defer s.Close()

			for i := 0; i < n; i++ {
				rec, err := s.Next()
				require.NoError(t, err)
				assert.Equal(t, recs[i], rec)
			}
			_, err = s.Next()
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestLoad_BadHeader(t *testing.T) {
	valid := testutil.EncodeCatalog(t, testutil.NewRNG(1).Records(3))

	badMagic := append([]byte(nil), valid...)
	badMagic[0] = 'X'

	badVersion := append([]byte(nil), valid...)
	badVersion[4] = 2

	tests := []struct {
		name  string
		data  []byte
		cause error
	}{
		{"bad magic", badMagic, catalog.ErrBadMagic},
		{"bad version", badVersion, catalog.ErrUnsupportedVersion},
		{"short header", valid[:10], catalog.ErrShortHeader},
		{"empty", nil, catalog.ErrShortHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pools := resource.NewPools(1<<20, 1<<16)

			_, err := catalog.Load(bytes.NewReader(tt.data), catalog.WithAllocator(pools.Allocator()))

			var fe *catalog.FormatError
			require.ErrorAs(t, err, &fe)
			assert.ErrorIs(t, err, tt.cause)
			assert.Zero(t, pools.Used())

			_, err = catalog.NewStream(bytes.NewReader(tt.data))
			assert.ErrorAs(t, err, &fe)
		})
	}
}

func TestLoad_ShortRead(t *testing.T) {
	recs := testutil.NewRNG(7).Records(10)
	blob := testutil.EncodeCatalog(t, recs)

	// Cut inside the name of the fifth record.
	full := testutil.EncodeCatalog(t, recs[:4])
	cut := len(full) + 10

	pools := resource.NewPools(1<<20, 1<<16)
	_, err := catalog.Load(bytes.NewReader(blob[:cut]), catalog.WithAllocator(pools.Allocator()))

	var sre *catalog.ShortReadError
	require.ErrorAs(t, err, &sre)
	assert.Equal(t, 4, sre.Parsed)
	assert.Equal(t, "name", sre.Field)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Zero(t, pools.Used())
}

func TestLoad_HeaderCountExceedsData(t *testing.T) {
	blob := catalog.AppendHeader(nil, catalog.Header{
		Magic:   catalog.Magic,
		Version: catalog.Version,
		Count:   0xFFFFFFFF,
	})

	_, err := catalog.Load(bytes.NewReader(blob))

	var sre *catalog.ShortReadError
	require.ErrorAs(t, err, &sre)
	assert.Zero(t, sre.Parsed)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestLoad_MemoryAccounting(t *testing.T) {
	recs := testutil.NewRNG(3).Records(100)
	blob := testutil.EncodeCatalog(t, recs)

	t.Run("reserved and released", func(t *testing.T) {
		pools := resource.NewPools(1<<20, 1<<16)

		set, err := catalog.Load(bytes.NewReader(blob), catalog.WithAllocator(pools.Allocator()))
		require.NoError(t, err)
		assert.Positive(t, set.MemoryUsage())
		assert.Equal(t, set.MemoryUsage(), pools.Used())

		set.Release()
		set.Release()
		assert.Zero(t, pools.Used())
		assert.Zero(t, set.Len())
	})

	t.Run("exhausted", func(t *testing.T) {
		pools := resource.NewPools(64, 64)

		_, err := catalog.Load(bytes.NewReader(blob), catalog.WithAllocator(pools.Allocator()))
		assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
		assert.Zero(t, pools.Used())
	})
}

func TestStream_TruncatedStrings(t *testing.T) {
	long := strings.Repeat("n", 100)
	recs := []catalog.Record{
		{R: 1, G: 2, B: 3, ID: 1, Name: long, Code: "ABCDEFGHIJKLMNOPQRST"},
		{R: 4, G: 5, B: 6, ID: 2, Name: "Second", Code: "S2"},
	}
	blob := testutil.EncodeCatalog(t, recs)

	s, err := catalog.NewStream(bytes.NewReader(blob))
	require.NoError(t, err)

	rec, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, long[:63], rec.Name)
	assert.Equal(t, "ABCDEFGHIJKLMNO", rec.Code)

	// Overflow bytes were skipped, so the next record is intact.
	rec, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, recs[1], rec)
}

func TestStream_EndsInsideString(t *testing.T) {
	recs := []catalog.Record{
		{R: 1, G: 2, B: 3, ID: 1, Name: "First", Code: "F1"},
		{R: 4, G: 5, B: 6, ID: 2, Name: "Second Colour", Code: "S2"},
	}
	blob := testutil.EncodeCatalog(t, recs)
	first := testutil.EncodeCatalog(t, recs[:1])
	// Keep the fixed fields, the name length and four name bytes.
	cut := len(first) + 9 + 1 + 4

	s, err := catalog.NewStream(bytes.NewReader(blob[:cut]))
	require.NoError(t, err)

	rec, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "First", rec.Name)

	rec, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, "Seco", rec.Name)
	assert.Equal(t, uint8(4), rec.R)

	assert.False(t, s.Available())
	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)

	// In bulk mode the same cut is fatal.
	_, err = catalog.Load(bytes.NewReader(blob[:cut]))
	var sre *catalog.ShortReadError
	assert.ErrorAs(t, err, &sre)
}

func TestStream_ResetAndAt(t *testing.T) {
	recs := testutil.NewRNG(11).Records(20)
	blob := testutil.EncodeCatalog(t, recs)

	s, err := catalog.NewStream(bytes.NewReader(blob), catalog.WithBufferSize(32))
	require.NoError(t, err)
	assert.Equal(t, 20, s.Count())

	for range 5 {
		_, err := s.Next()
		require.NoError(t, err)
	}
	assert.Equal(t, 5, s.Position())

	require.NoError(t, s.Reset())
	assert.Equal(t, 0, s.Position())
	rec, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, recs[0], rec)

	for _, i := range []int{7, 3, 19, 0} {
		rec, err := s.At(i)
		require.NoError(t, err)
		assert.Equal(t, recs[i], rec)
	}

	_, err = s.At(20)
	assert.Error(t, err)
}

type closeTracker struct {
	*bytes.Reader
	closed int
}

func (c *closeTracker) Close() error {
	c.closed++
	return nil
}

func TestStream_Close(t *testing.T) {
	src := &closeTracker{Reader: bytes.NewReader(testutil.EncodeCatalog(t, testutil.NewRNG(1).Records(2)))}

	s, err := catalog.NewStream(src)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, src.closed)

	_, err = s.Next()
	assert.ErrorIs(t, err, catalog.ErrClosed)
	assert.ErrorIs(t, s.Reset(), catalog.ErrClosed)
}

func TestRecord_Label(t *testing.T) {
	assert.Equal(t, "Pure Brilliant White (10BB83)", catalog.Record{Name: "Pure Brilliant White", Code: "10BB83"}.Label())
	assert.Equal(t, "Pure Brilliant White", catalog.Record{Name: "Pure Brilliant White"}.Label())
	assert.InDelta(t, 79.4, catalog.Record{LRVScaled: 7940}.LRV(), 1e-9)
}

func TestWriter(t *testing.T) {
	t.Run("truncates at rune boundary", func(t *testing.T) {
		name := strings.Repeat("a", 253) + "é" // 255 bytes
		blob := testutil.EncodeCatalog(t, []catalog.Record{{Name: name}})

		set, err := catalog.Load(bytes.NewReader(blob))
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("a", 253), set.Records[0].Name)
	})

	t.Run("count mismatch", func(t *testing.T) {
		var buf bytes.Buffer
		w, err := catalog.NewWriter(&buf, 2)
		require.NoError(t, err)
		require.NoError(t, w.Write(catalog.Record{}))
		assert.Error(t, w.Flush())
		require.NoError(t, w.Write(catalog.Record{}))
		assert.Error(t, w.Write(catalog.Record{}))
		assert.NoError(t, w.Flush())
	})

	t.Run("negative count", func(t *testing.T) {
		_, err := catalog.NewWriter(io.Discard, -1)
		assert.Error(t, err)
	})
}

func TestCompression(t *testing.T) {
	recs := testutil.NewRNG(5).ClusteredRecords(300, 6)
	raw := testutil.EncodeCatalog(t, recs)

	for _, c := range []catalog.Compression{catalog.CompressionNone, catalog.CompressionZstd, catalog.CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := catalog.NewCompressor(&buf, c)
			require.NoError(t, err)
			_, err = w.Write(raw)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			assert.Equal(t, c, catalog.Detect(buf.Bytes()))

			rs, got, err := catalog.Open(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
			require.NoError(t, err)
			assert.Equal(t, c, got)

			set, err := catalog.Load(rs)
			require.NoError(t, err)
			assert.Equal(t, recs, set.Records)
		})
	}

	_, err := catalog.ParseCompression("brotli")
	assert.Error(t, err)
	parsed, err := catalog.ParseCompression("lz4")
	require.NoError(t, err)
	assert.Equal(t, catalog.CompressionLZ4, parsed)
}

func TestOpen_CorruptFrame(t *testing.T) {
	data := []byte{0x28, 0xB5, 0x2F, 0xFD, 0xFF, 0xFF, 0xFF}

	_, _, err := catalog.Open(bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	src := `[
		{"name": " Pure Brilliant White ", "code": "10BB83", "r": 255, "g": 255, "b": 255, "lrv": "89.40", "id": 1, "lightText": false},
		{"name": "Charcoal", "code": "00NN21", "r": "54", "g": 54, "b": 54, "lrv": 8.29, "id": "6", "lightText": true},
		{"name": "Broken", "code": "XX", "r": 300, "g": 0, "b": 0, "lrv": 1, "id": 7},
		{"name": "Odd LRV", "code": "", "r": 1, "g": 2, "b": 3, "lrv": "n/a", "id": 8},
		{"name": "Huge LRV", "r": 1, "g": 2, "b": 3, "lrv": 1000, "id": 9}
	]`

	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			recs, skipped, err := catalog.DecodeJSON([]byte(src), c)
			require.NoError(t, err)
			assert.Equal(t, 1, skipped)
			require.Len(t, recs, 4)

			assert.Equal(t, catalog.Record{R: 255, G: 255, B: 255, LRVScaled: 8940, ID: 1, Name: "Pure Brilliant White", Code: "10BB83"}, recs[0])
			assert.Equal(t, catalog.Record{R: 54, G: 54, B: 54, LRVScaled: 829, ID: 6, Name: "Charcoal", Code: "00NN21", LightText: true}, recs[1])
			assert.Equal(t, uint16(0), recs[2].LRVScaled)
			assert.Equal(t, uint16(65535), recs[3].LRVScaled)
		})
	}

	_, _, err := catalog.DecodeJSON([]byte(`{"not": "an array"}`), nil)
	assert.Error(t, err)
}

func TestFormatError_Message(t *testing.T) {
	_, err := catalog.ReadHeader(bytes.NewReader(make([]byte, catalog.HeaderSize)))

	var fe *catalog.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "magic", fe.Field)
	assert.Contains(t, err.Error(), "0x584C5544")
	assert.True(t, errors.Is(err, catalog.ErrBadMagic))
}
