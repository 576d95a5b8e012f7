package testutil

import (
	"bytes"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/hupe1980/colormatch/catalog"
	"github.com/hupe1980/colormatch/distance"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test data
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// RGB returns a uniformly random colour.
func (r *RNG) RGB() (uint8, uint8, uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channelLocked(), r.channelLocked(), r.channelLocked()
}

func (r *RNG) channelLocked() uint8 {
	return uint8(r.rand.Intn(256)) //nolint:gosec // Intn(256) fits in uint8
}

// Records generates n records with uniform RGB values and sequential IDs.
func (r *RNG) Records(n int) []catalog.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]catalog.Record, n)
	for i := range out {
		out[i] = r.recordLocked(i, r.channelLocked(), r.channelLocked(), r.channelLocked())
	}
	return out
}

// ClusteredRecords generates n records grouped around the given number of
// hues, like the families of a paint card.
func (r *RNG) ClusteredRecords(n, clusters int) []catalog.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	if clusters < 1 {
		clusters = 1
	}
	centers := make([][3]uint8, clusters)
	for i := range centers {
		centers[i] = [3]uint8{r.channelLocked(), r.channelLocked(), r.channelLocked()}
	}

	out := make([]catalog.Record, n)
	for i := range out {
		c := centers[i%clusters]
		out[i] = r.recordLocked(i, jitter(c[0], r.rand.Intn(33)-16), jitter(c[1], r.rand.Intn(33)-16), jitter(c[2], r.rand.Intn(33)-16))
	}
	return out
}

func (r *RNG) recordLocked(i int, cr, cg, cb uint8) catalog.Record {
	return catalog.Record{
		R:         cr,
		G:         cg,
		B:         cb,
		LRVScaled: uint16(r.rand.Intn(10001)), //nolint:gosec // at most 10000
		ID:        uint32(i + 1),              //nolint:gosec // test sizes are small
		Name:      fmt.Sprintf("Colour %d", i+1),
		Code:      fmt.Sprintf("%02dXX%02d", i%100, (i/100)%100),
		LightText: r.rand.Intn(2) == 0,
	}
}

func jitter(v uint8, d int) uint8 {
	x := int(v) + d
	switch {
	case x < 0:
		return 0
	case x > 255:
		return 255
	default:
		return uint8(x)
	}
}

// EncodeCatalog encodes records into a catalog blob.
func EncodeCatalog(tb testing.TB, records []catalog.Record) []byte {
	tb.Helper()

	var buf bytes.Buffer
	if err := catalog.Encode(&buf, records); err != nil {
		tb.Fatalf("encode catalog: %v", err)
	}
	return buf.Bytes()
}

// Match is a ground-truth result.
type Match struct {
	Index    int
	Distance float64
}

// BruteForceSquared returns the record closest in squared RGB distance.
// Ties keep the first record. It returns Index -1 for an empty slice.
func BruteForceSquared(records []catalog.Record, r, g, b uint8) Match {
	best := Match{Index: -1}
	var bestD uint32
	for i, rec := range records {
		d := distance.SquaredRGB(r, g, b, rec.R, rec.G, rec.B)
		if best.Index < 0 || d < bestD {
			best.Index = i
			bestD = d
		}
	}
	best.Distance = float64(bestD)
	return best
}

// BruteForcePerceptual returns the record with the lowest CIEDE2000 distance.
// Ties keep the first record. It returns Index -1 for an empty slice.
func BruteForcePerceptual(records []catalog.Record, r, g, b uint8) Match {
	best := Match{Index: -1}
	query := distance.RGBToLab(r, g, b)
	for i, rec := range records {
		d := distance.CIEDE2000(query, distance.RGBToLab(rec.R, rec.G, rec.B))
		if best.Index < 0 || d < best.Distance {
			best = Match{Index: i, Distance: d}
		}
	}
	return best
}
