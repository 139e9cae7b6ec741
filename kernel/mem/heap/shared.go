package heap

import (
	"bibos/kernel"
	"unsafe"
)

// sharedCell is the in-memory layout of a Shared value.
type sharedCell struct {
	refs  uint64
	value uint64
}

var (
	sharedLayout = Layout{Size: unsafe.Sizeof(sharedCell{}), Align: unsafe.Alignof(sharedCell{})}

	errReleased = &kernel.Error{Module: "heap", Message: "use of released shared value"}
)

// Shared is a reference counted uint64 stored in memory obtained from an
// Allocator. Copies of a Shared value obtained through Clone refer to the
// same cell; the cell is freed once every reference has been released.
type Shared struct {
	alloc Allocator
	ptr   uintptr
}

// NewShared allocates a cell holding val with a reference count of 1.
func NewShared(alloc Allocator, val uint64) (Shared, *kernel.Error) {
	ptr, err := alloc.Alloc(sharedLayout)
	if err != nil {
		return Shared{}, err
	}

	cell := (*sharedCell)(unsafe.Pointer(ptr))
	cell.refs, cell.value = 1, val
	return Shared{alloc: alloc, ptr: ptr}, nil
}

// Addr returns the address of the shared cell or 0 if s has been released.
func (s Shared) Addr() uintptr { return s.ptr }

// Clone returns a new reference to the cell.
func (s Shared) Clone() (Shared, *kernel.Error) {
	if s.ptr == 0 {
		return Shared{}, errReleased
	}
	s.cell().refs++
	return s, nil
}

// RefCount returns the number of live references to the cell.
func (s Shared) RefCount() uint64 {
	if s.ptr == 0 {
		return 0
	}
	return s.cell().refs
}

// Value returns the stored value.
func (s Shared) Value() (uint64, *kernel.Error) {
	if s.ptr == 0 {
		return 0, errReleased
	}
	return s.cell().value, nil
}

// Release drops the reference held by s and frees the cell when it was the
// last one. s must not be used afterwards.
func (s *Shared) Release() {
	if s.ptr == 0 {
		return
	}

	cell := s.cell()
	cell.refs--
	if cell.refs == 0 {
		s.alloc.Free(s.ptr, sharedLayout)
	}
	s.ptr = 0
}

func (s Shared) cell() *sharedCell {
	return (*sharedCell)(unsafe.Pointer(s.ptr))
}
