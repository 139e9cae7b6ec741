package heap

import (
	"bibos/kernel"
	"bibos/kernel/mem"
)

const (
	// HeapStart is the virtual address where the kernel heap is mapped.
	HeapStart uintptr = 0x4444_4444_0000

	// HeapSize is the size of the kernel heap.
	HeapSize = 100 * mem.Kb
)

// Allocator is implemented by allocators that can back heap containers.
type Allocator interface {
	Alloc(Layout) (uintptr, *kernel.Error)
	Free(uintptr, Layout)
}

// kernelHeap is the allocator behind the package-level functions. It is
// only reachable through them.
var kernelHeap BumpAllocator

// Init hands the range supplied by the memory manager to the kernel heap.
func Init(start uintptr, size mem.Size) *kernel.Error {
	return kernelHeap.Init(start, size)
}

// Alloc allocates memory from the kernel heap.
func Alloc(layout Layout) (uintptr, *kernel.Error) {
	return kernelHeap.Alloc(layout)
}

// Free returns memory to the kernel heap.
func Free(ptr uintptr, layout Layout) {
	kernelHeap.Free(ptr, layout)
}

// KernelStats returns a snapshot of the kernel heap state.
func KernelStats() Stats {
	return kernelHeap.Stats()
}

// Kernel returns the kernel heap as an Allocator.
func Kernel() Allocator {
	return &kernelHeap
}
