package resource

import (
	"fmt"
	"sync/atomic"
)

// Default pool sizes of the reference device (ESP32-S3 with 8 MiB PSRAM).
const (
	DefaultAuxiliaryBytes = 8 << 20
	DefaultPrimaryBytes   = 320 << 10
)

// Pool names.
const (
	PoolAuxiliary = "auxiliary"
	PoolPrimary   = "primary"
)

// Probe reports free memory. It is the memory-budget query consumed by
// components that size their allocations at runtime.
type Probe interface {
	// FreeAuxiliary returns the bytes free in the large, slower pool.
	FreeAuxiliary() int64
	// FreePrimary returns the bytes free in primary RAM.
	FreePrimary() int64
}

// Pools pairs the auxiliary and primary controllers of a device.
type Pools struct {
	aux     *Controller
	primary *Controller
}

// NewPools creates pools with the given limits. A limit of 0 means unlimited.
func NewPools(auxiliaryBytes, primaryBytes int64) *Pools {
	return &Pools{
		aux:     NewController(Config{Name: PoolAuxiliary, MemoryLimitBytes: auxiliaryBytes}),
		primary: NewController(Config{Name: PoolPrimary, MemoryLimitBytes: primaryBytes}),
	}
}

// Auxiliary returns the auxiliary pool controller.
func (p *Pools) Auxiliary() *Controller { return p.aux }

// Primary returns the primary pool controller.
func (p *Pools) Primary() *Controller { return p.primary }

// FreeAuxiliary implements Probe.
func (p *Pools) FreeAuxiliary() int64 { return p.aux.Free() }

// FreePrimary implements Probe.
func (p *Pools) FreePrimary() int64 { return p.primary.Free() }

// Used returns the bytes reserved across both pools.
func (p *Pools) Used() int64 {
	return p.aux.MemoryUsage() + p.primary.MemoryUsage()
}

// Allocator returns the default policy: auxiliary first, then primary.
func (p *Pools) Allocator() *Allocator {
	return NewAllocator(p.aux, p.primary)
}

// Allocator reserves memory from a list of pools tried in priority order.
type Allocator struct {
	tiers []*Controller
}

// NewAllocator creates an allocator over the given pools, highest priority first.
func NewAllocator(tiers ...*Controller) *Allocator {
	return &Allocator{tiers: tiers}
}

// Reserve reserves bytes from the first pool that can hold all of them.
// It fails fast with ErrMemoryLimitExceeded when no pool can.
func (a *Allocator) Reserve(bytes int64) (*Lease, error) {
	if a == nil || len(a.tiers) == 0 {
		return &Lease{bytes: bytes}, nil
	}

	for _, c := range a.tiers {
		if c.TryAcquireMemory(bytes) {
			return &Lease{c: c, bytes: bytes}, nil
		}
	}

	return nil, fmt.Errorf("reserve %d bytes: %w", bytes, ErrMemoryLimitExceeded)
}

// Lease is a reservation held against one pool.
type Lease struct {
	c        *Controller
	bytes    int64
	released atomic.Bool
}

// Bytes returns the reserved size.
func (l *Lease) Bytes() int64 {
	if l == nil {
		return 0
	}
	return l.bytes
}

// Pool returns the name of the pool the lease was taken from.
func (l *Lease) Pool() string {
	if l == nil {
		return ""
	}
	return l.c.Name()
}

// Release returns the bytes to their pool. It is safe to call more than once.
func (l *Lease) Release() {
	if l == nil {
		return
	}
	if l.released.CompareAndSwap(false, true) {
		l.c.ReleaseMemory(l.bytes)
	}
}
