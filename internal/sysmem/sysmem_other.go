//go:build !linux

package sysmem

import (
	"runtime"
	"runtime/debug"
)

// freeBytes reports the headroom under the Go memory limit. Without
// GOMEMLIMIT that is effectively unbounded.
func freeBytes() (int64, error) {
	limit := debug.SetMemoryLimit(-1)

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	used := clamp(ms.Sys)
	if used >= limit {
		return 0, nil
	}
	return limit - used, nil
}
