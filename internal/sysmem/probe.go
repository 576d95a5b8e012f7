package sysmem

import (
	"math"

	"github.com/hupe1980/colormatch/resource"
)

// Compile-time check to ensure Probe satisfies resource.Probe.
var _ resource.Probe = (*Probe)(nil)

// Probe reads free host memory on every call.
type Probe struct {
	// Limit caps the reported free memory. Zero means no cap.
	Limit int64
}

// New returns a probe capped at limit bytes (0 for no cap).
func New(limit int64) *Probe {
	return &Probe{Limit: limit}
}

// FreeAuxiliary implements resource.Probe.
func (p *Probe) FreeAuxiliary() int64 {
	free, err := freeBytes()
	if err != nil {
		return 0
	}
	if p.Limit > 0 && free > p.Limit {
		return p.Limit
	}
	return free
}

// FreePrimary implements resource.Probe.
func (p *Probe) FreePrimary() int64 { return 0 }

func clamp(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
