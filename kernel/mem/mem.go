// Package mem provides memory size definitions and raw memory helpers that
// operate on addresses rather than Go slices.
package mem

import "unsafe"

// Size represents a memory block size in bytes.
type Size uint64

// Common memory block sizes.
const (
	Byte Size = 1
	Kb        = 1024 * Byte
	Mb        = 1024 * Kb
	Gb        = 1024 * Mb
)

// PageSize defines the system's page size in bytes.
const PageSize = 4 * Kb

// overlay returns a byte slice covering size bytes at addr.
func overlay(addr uintptr, size Size) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size))
}

// Memset sets size bytes at the given address to the supplied value. The
// region is filled with log2(size) copy calls rather than a byte loop.
func Memset(addr uintptr, value byte, size Size) {
	if size == 0 {
		return
	}

	target := overlay(addr, size)
	target[0] = value
	for filled := 1; filled < len(target); filled *= 2 {
		copy(target[filled:], target[:filled])
	}
}

// Memcopy copies size bytes from src to dst. Overlapping regions are
// handled like the built-in copy.
func Memcopy(src, dst uintptr, size Size) {
	if size == 0 {
		return
	}

	copy(overlay(dst, size), overlay(src, size))
}
