// Package flat provides an exact nearest-colour scan over a small in-memory palette.
package flat

import (
	"sync"

	"github.com/hupe1980/colormatch/distance"
	"github.com/hupe1980/colormatch/index"
)

// Compile-time check to ensure Flat satisfies index.Index.
var _ index.Index = (*Flat)(nil)

// Flat scans every colour on each query.
type Flat struct {
	mu     sync.RWMutex
	colors [][3]uint8
	metric distance.Metric
	dist   distance.Func
}

// New returns an empty index measuring with metric.
func New(metric distance.Metric) (*Flat, error) {
	fn, err := distance.Provider(metric)
	if err != nil {
		return nil, err
	}
	return &Flat{metric: metric, dist: fn}, nil
}

// Add appends a colour and returns its ref.
func (f *Flat) Add(r, g, b uint8) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.colors = append(f.colors, [3]uint8{r, g, b})
	return uint32(len(f.colors) - 1) //nolint:gosec // palettes are small
}

// Metric returns the metric the index measures with.
func (f *Flat) Metric() distance.Metric { return f.metric }

// Search returns the closest colour. Ties keep the colour added first.
func (f *Flat) Search(r, g, b uint8) (index.Hit, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.colors) == 0 {
		return index.Hit{}, false
	}

	best := index.Hit{Distance: -1}
	for i, c := range f.colors {
		d := f.dist(r, g, b, c[0], c[1], c[2])
		if best.Distance < 0 || d < best.Distance {
			best = index.Hit{Ref: uint32(i), Distance: d} //nolint:gosec // palettes are small
		}
	}
	return best, true
}

// Len returns the number of colours.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.colors)
}
