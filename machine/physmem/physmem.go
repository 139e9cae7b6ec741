// Package physmem maps anonymous memory outside the Go heap. The emulated
// machine uses it for RAM and video memory because the kernel addresses both
// through plain integers, and the runtime pointer checks only allow that for
// memory the Go allocator does not own.
package physmem

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Region is a zeroed, page aligned block of memory that the garbage collector
// never scans or moves.
type Region struct {
	mem  []byte
	size int
}

// Map reserves size bytes of memory. A zero size yields an empty region
// without touching the OS.
func Map(size int) (*Region, error) {
	if size <= 0 {
		return &Region{}, nil
	}

	pageSize := unix.Getpagesize()
	mapped := (size + pageSize - 1) &^ (pageSize - 1)
	mem, err := unix.Mmap(-1, 0, mapped, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}

	return &Region{mem: mem, size: size}, nil
}

// MustMap is like Map but panics if the memory cannot be mapped.
func MustMap(size int) *Region {
	r, err := Map(size)
	if err != nil {
		panic("physmem: " + err.Error())
	}
	return r
}

// Addr returns the address of the first byte or 0 for an empty region.
func (r *Region) Addr() uintptr {
	if r.size == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&r.mem[0]))
}

// Size returns the number of bytes requested when the region was mapped.
func (r *Region) Size() int {
	return r.size
}

// Bytes returns the region as a byte slice.
func (r *Region) Bytes() []byte {
	return r.mem[:r.size:r.size]
}

// Words returns the region as 64-bit words. A trailing partial word is
// included.
func (r *Region) Words() []uint64 {
	if r.size == 0 {
		return nil
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(&r.mem[0])), (r.size+7)/8)
}

// Cells returns the region as 16-bit text mode cells. A trailing odd byte is
// ignored.
func (r *Region) Cells() []uint16 {
	if r.size < 2 {
		return nil
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(&r.mem[0])), r.size/2)
}

// Unmap releases the memory. The region must not be used afterwards, nor
// may any address derived from it.
func (r *Region) Unmap() error {
	if r.mem == nil {
		return nil
	}

	err := unix.Munmap(r.mem)
	r.mem, r.size = nil, 0
	return err
}
