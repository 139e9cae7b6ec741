// Package heap implements the kernel heap: a bump allocator that serves
// requests by advancing a cursor through a fixed arena and reclaims the whole
// arena once every outstanding allocation has been released.
package heap

import (
	"bibos/kernel"
	"bibos/kernel/kfmt"
	"bibos/kernel/mem"
	"bibos/kernel/sync"
)

var (
	// panicFn is mocked by tests.
	panicFn = kfmt.Panic

	errAlreadyInitialized = &kernel.Error{Module: "heap", Message: "allocator already initialized"}
	errNotInitialized     = &kernel.Error{Module: "heap", Message: "allocator not initialized"}
	errInvalidRange       = &kernel.Error{Module: "heap", Message: "invalid heap address range"}
	errOutOfMemory        = &kernel.Error{Module: "heap", Message: "out of memory"}
	errDoubleFree         = &kernel.Error{Module: "heap", Message: "free called with no outstanding allocations"}
	errForeignFree        = &kernel.Error{Module: "heap", Message: "free called with a pointer outside the arena"}
)

// Stats is a snapshot of the allocator state.
type Stats struct {
	HeapStart   uintptr
	HeapEnd     uintptr
	Next        uintptr
	Outstanding uint64
}

// BumpAllocator hands out memory from [heapStart, heapEnd) by advancing next.
// Individual allocations are never reused; next is reset to heapStart when
// the outstanding allocation count drops to zero. All operations run with
// interrupts masked so the allocator can also be used by interrupt handlers.
type BumpAllocator struct {
	lock sync.IRQSpinlock

	heapStart   uintptr
	heapEnd     uintptr
	next        uintptr
	allocations uint64
	initialized bool
}

// Init sets up the allocator to manage size bytes starting at start. The
// range must be mapped, unused and exclusively owned by the allocator. Init
// may only be called once.
func (a *BumpAllocator) Init(start uintptr, size mem.Size) *kernel.Error {
	var err *kernel.Error

	a.lock.Do(func() {
		switch {
		case a.initialized:
			err = errAlreadyInitialized
		case size == 0 || uint64(size) > uint64(^uintptr(0)-start):
			err = errInvalidRange
		default:
			a.heapStart = start
			a.heapEnd = start + uintptr(size)
			a.next = start
			a.initialized = true
		}
	})

	return err
}

// Alloc reserves memory for the supplied layout and returns its address.
// It fails with an out of memory error if the aligned allocation does not fit
// in the remaining arena or if computing its bounds overflows.
func (a *BumpAllocator) Alloc(layout Layout) (uintptr, *kernel.Error) {
	if !layout.valid() {
		return 0, errInvalidLayout
	}

	var (
		addr uintptr
		err  *kernel.Error
	)

	a.lock.Do(func() {
		if !a.initialized {
			err = errNotInitialized
			return
		}

		start, ok := alignUp(a.next, layout.Align)
		if !ok || layout.Size > ^uintptr(0)-start {
			err = errOutOfMemory
			return
		}

		end := start + layout.Size
		if end > a.heapEnd {
			err = errOutOfMemory
			return
		}

		a.next = end
		a.allocations++
		addr = start
	})

	return addr, err
}

// Free releases an allocation. Once no allocations remain outstanding the
// whole arena becomes available again. Releasing more allocations than were
// handed out, or an address outside the arena, means the heap bookkeeping is
// corrupt and is fatal.
func (a *BumpAllocator) Free(ptr uintptr, _ Layout) {
	var err *kernel.Error

	a.lock.Do(func() {
		switch {
		case a.allocations == 0:
			err = errDoubleFree
		case ptr < a.heapStart || ptr > a.heapEnd:
			err = errForeignFree
		default:
			a.allocations--
			if a.allocations == 0 {
				a.next = a.heapStart
			}
		}
	})

	// Panic outside the critical section so the diagnostic output does
	// not run with the allocator lock held.
	if err != nil {
		panicFn(err)
	}
}

// Stats returns a snapshot of the allocator state.
func (a *BumpAllocator) Stats() Stats {
	var s Stats
	a.lock.Do(func() {
		s = Stats{
			HeapStart:   a.heapStart,
			HeapEnd:     a.heapEnd,
			Next:        a.next,
			Outstanding: a.allocations,
		}
	})
	return s
}
