// Package resource tracks the memory pools a colour-matching device exposes.
//
// A device has two regions with different capacity and latency:
//
//   - Auxiliary: the large, slower pool (PSRAM on the reference hardware)
//   - Primary: the small, fast RAM
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                          Pools                              │
//	├──────────────────────────────┬──────────────────────────────┤
//	│  Auxiliary Controller        │  Primary Controller          │
//	│  (weighted semaphore)        │  (weighted semaphore)        │
//	├──────────────────────────────┴──────────────────────────────┤
//	│  Allocator: auxiliary first, primary second, fail fast      │
//	└─────────────────────────────────────────────────────────────┘
//
// # Memory Management
//
// Reservations are non-blocking. A Controller either grants the bytes
// immediately or returns ErrMemoryLimitExceeded:
//
//	pools := resource.NewPools(8<<20, 320<<10)
//
//	lease, err := pools.Allocator().Reserve(64 * 1024)
//	if err != nil {
//	    // ErrMemoryLimitExceeded - every pool is exhausted
//	}
//	defer lease.Release()
//
// # Probing
//
// Components that size themselves from free memory depend on the Probe
// interface only. Pools implements it from its own accounting; the
// internal/sysmem package implements it from the host operating system.
//
// # Nil Safety
//
// All Controller and Lease methods handle nil receivers gracefully. A nil
// Allocator hands out untracked leases.
package resource
