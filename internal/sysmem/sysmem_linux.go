//go:build linux

package sysmem

import (
	"golang.org/x/sys/unix"
)

func freeBytes() (int64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, err
	}
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	return clamp((uint64(info.Freeram) + uint64(info.Bufferram)) * unit), nil //nolint:unconvert // field widths differ per arch
}
