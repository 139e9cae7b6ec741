package heap

import (
	"bibos/kernel"
	"bibos/kernel/mem"
	"unsafe"
)

const (
	wordSize       = unsafe.Sizeof(uint64(0))
	minVecCapacity = 4
)

var errIndexOutOfRange = &kernel.Error{Module: "heap", Message: "vector index out of range"}

// Uint64Vec is a growable array of uint64 values stored in memory obtained
// from an Allocator. When full, Push allocates a buffer twice as large,
// copies the contents over and frees the old buffer.
type Uint64Vec struct {
	alloc Allocator
	ptr   uintptr
	len   int
	cap   int
}

// NewUint64Vec returns an empty vector backed by alloc. No memory is
// allocated until the first Push.
func NewUint64Vec(alloc Allocator) *Uint64Vec {
	return &Uint64Vec{alloc: alloc}
}

// Len returns the number of stored values.
func (v *Uint64Vec) Len() int { return v.len }

// Cap returns the number of values that fit in the current buffer.
func (v *Uint64Vec) Cap() int { return v.cap }

// Addr returns the address of the backing buffer.
func (v *Uint64Vec) Addr() uintptr { return v.ptr }

// Push appends val, growing the backing buffer if needed.
func (v *Uint64Vec) Push(val uint64) *kernel.Error {
	if v.len == v.cap {
		if err := v.grow(); err != nil {
			return err
		}
	}

	*v.slot(v.len) = val
	v.len++
	return nil
}

// Get returns the value stored at index i.
func (v *Uint64Vec) Get(i int) (uint64, *kernel.Error) {
	if i < 0 || i >= v.len {
		return 0, errIndexOutOfRange
	}
	return *v.slot(i), nil
}

// Drop releases the backing buffer.
func (v *Uint64Vec) Drop() {
	if v.ptr != 0 {
		v.alloc.Free(v.ptr, layoutFor(v.cap))
	}
	v.ptr, v.len, v.cap = 0, 0, 0
}

func (v *Uint64Vec) grow() *kernel.Error {
	newCap := v.cap * 2
	if newCap < minVecCapacity {
		newCap = minVecCapacity
	}

	newPtr, err := v.alloc.Alloc(layoutFor(newCap))
	if err != nil {
		return err
	}

	if v.ptr != 0 {
		mem.Memcopy(v.ptr, newPtr, mem.Size(uintptr(v.len)*wordSize))
		v.alloc.Free(v.ptr, layoutFor(v.cap))
	}

	v.ptr, v.cap = newPtr, newCap
	return nil
}

func (v *Uint64Vec) slot(i int) *uint64 {
	return (*uint64)(unsafe.Pointer(v.ptr + uintptr(i)*wordSize))
}

func layoutFor(capacity int) Layout {
	return Layout{Size: uintptr(capacity) * wordSize, Align: wordSize}
}
