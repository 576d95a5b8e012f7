package kdtree

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	// ErrInsufficientMemory is returned when too few points fit the memory budget.
	ErrInsufficientMemory = errors.New("kdtree: insufficient memory")
	// ErrAllocation is returned when the node array cannot be reserved.
	ErrAllocation = errors.New("kdtree: allocation failed")
	// ErrEmpty is returned when there is nothing to index.
	ErrEmpty = errors.New("kdtree: no points")
)

// Per-point memory footprint of a build: one node plus one working point.
var (
	NodeSize  = int64(unsafe.Sizeof(Node{}))
	PointSize = int64(unsafe.Sizeof(Point{}))
	Footprint = NodeSize + PointSize
)

// SizingConfig bounds the number of points an index is built for.
type SizingConfig struct {
	// Reserve is the auxiliary memory that must stay free.
	Reserve int64
	// MinPoints is the smallest index worth building.
	MinPoints int
	// MaxPoints is the absolute cap.
	MaxPoints int
}

// DefaultSizingConfig returns the defaults of the reference device.
func DefaultSizingConfig() SizingConfig {
	return SizingConfig{
		Reserve:   500 << 10,
		MinPoints: 100,
		MaxPoints: 4500,
	}
}

// Size returns how many points to build for given catalogSize records and
// freeAux bytes of free auxiliary memory.
//
// The target is (freeAux - Reserve) / Footprint clamped to the catalog size
// and MaxPoints. A target below MinPoints (or below the catalog size, for
// catalogs smaller than MinPoints) fails with ErrInsufficientMemory.
func Size(cfg SizingConfig, catalogSize int, freeAux int64) (int, error) {
	if catalogSize <= 0 {
		return 0, ErrEmpty
	}

	headroom := freeAux - cfg.Reserve
	if headroom < 0 {
		headroom = 0
	}

	target := headroom / Footprint
	target = min(target, int64(catalogSize))
	if cfg.MaxPoints > 0 {
		target = min(target, int64(cfg.MaxPoints))
	}

	minimum := int64(max(1, min(cfg.MinPoints, catalogSize)))
	if target < minimum {
		return 0, fmt.Errorf("%w: room for %d points, need %d", ErrInsufficientMemory, target, minimum)
	}

	return int(target), nil
}
