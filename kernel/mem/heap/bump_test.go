package heap

import (
	"bibos/kernel"
	"bibos/kernel/mem"
	"bibos/machine/physmem"
	"testing"
	"unsafe"
)

func TestNewLayout(t *testing.T) {
	specs := []struct {
		align uintptr
		valid bool
	}{
		{0, false},
		{1, true},
		{2, true},
		{3, false},
		{8, true},
		{12, false},
		{4096, true},
	}

	for specIndex, spec := range specs {
		l, err := NewLayout(16, spec.align)
		switch {
		case spec.valid && err != nil:
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
		case !spec.valid && err != errInvalidLayout:
			t.Errorf("[spec %d] expected errInvalidLayout; got %v", specIndex, err)
		case spec.valid && (l.Size != 16 || l.Align != spec.align):
			t.Errorf("[spec %d] unexpected layout %+v", specIndex, l)
		}
	}
}

func TestAlignUp(t *testing.T) {
	specs := []struct {
		addr, align uintptr
		exp         uintptr
		ok          bool
	}{
		{0x1000, 8, 0x1000, true},
		{0x1001, 8, 0x1008, true},
		{0x1001, 4096, 0x2000, true},
		{^uintptr(0) - 2, 1, ^uintptr(0) - 2, true},
		{^uintptr(0) - 2, 8, 0, false},
	}

	for specIndex, spec := range specs {
		got, ok := alignUp(spec.addr, spec.align)
		if got != spec.exp || ok != spec.ok {
			t.Errorf("[spec %d] expected (0x%x, %t); got (0x%x, %t)", specIndex, spec.exp, spec.ok, got, ok)
		}
	}
}

func TestBumpAllocatorInit(t *testing.T) {
	var a BumpAllocator

	if _, err := a.Alloc(Layout{Size: 8, Align: 8}); err != errNotInitialized {
		t.Fatalf("expected errNotInitialized; got %v", err)
	}

	if err := a.Init(0x1000, 0); err != errInvalidRange {
		t.Fatalf("expected errInvalidRange for an empty arena; got %v", err)
	}

	if err := a.Init(^uintptr(0)-10, 100); err != errInvalidRange {
		t.Fatalf("expected errInvalidRange for a wrapping arena; got %v", err)
	}

	if err := a.Init(0x1000, 4*mem.Kb); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := a.Init(0x8000, 4*mem.Kb); err != errAlreadyInitialized {
		t.Fatalf("expected errAlreadyInitialized; got %v", err)
	}

	exp := Stats{HeapStart: 0x1000, HeapEnd: 0x2000, Next: 0x1000}
	if got := a.Stats(); got != exp {
		t.Fatalf("expected stats %+v; got %+v", exp, got)
	}
}

func TestBumpAllocatorAlloc(t *testing.T) {
	var a BumpAllocator
	if err := a.Init(0x1001, 256); err != nil {
		t.Fatal(err)
	}

	specs := []struct {
		layout  Layout
		expAddr uintptr
		expErr  *kernel.Error
	}{
		{Layout{Size: 3, Align: 1}, 0x1001, nil},
		{Layout{Size: 8, Align: 8}, 0x1008, nil},
		{Layout{Size: 16, Align: 64}, 0x1040, nil},
		{Layout{Size: 0, Align: 16}, 0x1050, nil},
		{Layout{Size: 1, Align: 3}, 0, errInvalidLayout},
		{Layout{Size: 512, Align: 1}, 0, errOutOfMemory},
		{Layout{Size: ^uintptr(0), Align: 1}, 0, errOutOfMemory},
		// fills the arena up to its last byte
		{Layout{Size: 0x1101 - 0x1050, Align: 1}, 0x1050, nil},
		{Layout{Size: 1, Align: 1}, 0, errOutOfMemory},
	}

	for specIndex, spec := range specs {
		addr, err := a.Alloc(spec.layout)
		if err != spec.expErr {
			t.Errorf("[spec %d] expected error %v; got %v", specIndex, spec.expErr, err)
			continue
		}

		if err == nil {
			if addr != spec.expAddr {
				t.Errorf("[spec %d] expected address 0x%x; got 0x%x", specIndex, spec.expAddr, addr)
			}
			if addr%spec.layout.Align != 0 {
				t.Errorf("[spec %d] address 0x%x is not aligned to %d", specIndex, addr, spec.layout.Align)
			}
		}
	}

	if got := a.Stats().Outstanding; got != 5 {
		t.Fatalf("expected 5 outstanding allocations; got %d", got)
	}
}

func TestBumpAllocatorAllocationsDoNotOverlap(t *testing.T) {
	var a BumpAllocator
	if err := a.Init(0x10000, 64*mem.Kb); err != nil {
		t.Fatal(err)
	}

	var prevEnd uintptr = 0x10000
	for i := 0; i < 100; i++ {
		layout := Layout{Size: uintptr(i%13 + 1), Align: uintptr(1) << uint(i%7)}
		addr, err := a.Alloc(layout)
		if err != nil {
			t.Fatalf("[alloc %d] unexpected error: %v", i, err)
		}

		if addr < prevEnd {
			t.Fatalf("[alloc %d] address 0x%x overlaps previous allocation ending at 0x%x", i, addr, prevEnd)
		}
		if addr%layout.Align != 0 {
			t.Fatalf("[alloc %d] address 0x%x is not aligned to %d", i, addr, layout.Align)
		}
		prevEnd = addr + layout.Size
	}
}

func TestBumpAllocatorFree(t *testing.T) {
	defer func() { panicFn = defaultPanicFn }()

	var a BumpAllocator
	if err := a.Init(0x1000, 1*mem.Kb); err != nil {
		t.Fatal(err)
	}

	layout := Layout{Size: 100, Align: 8}
	first, _ := a.Alloc(layout)
	second, _ := a.Alloc(layout)

	a.Free(first, layout)
	if got := a.Stats(); got.Outstanding != 1 || got.Next == got.HeapStart {
		t.Fatalf("expected arena to stay in use while an allocation is outstanding; got %+v", got)
	}

	// a freed slot is never reused while others remain outstanding
	third, _ := a.Alloc(layout)
	if third == first {
		t.Fatal("expected bump allocator not to reuse individual allocations")
	}

	a.Free(second, layout)
	a.Free(third, layout)
	if got := a.Stats(); got.Outstanding != 0 || got.Next != got.HeapStart {
		t.Fatalf("expected arena to be reclaimed once every allocation is freed; got %+v", got)
	}

	if addr, _ := a.Alloc(layout); addr != 0x1000 {
		t.Fatalf("expected allocation after reclaim to start at the arena base; got 0x%x", addr)
	}

	t.Run("integrity failures", func(t *testing.T) {
		specs := []struct {
			ptr    uintptr
			expErr *kernel.Error
		}{
			{0x0800, errForeignFree},
			{0x2000 + 1, errForeignFree},
			{0x1000, nil},
			{0x1000, errDoubleFree},
		}

		for specIndex, spec := range specs {
			var got *kernel.Error
			panicFn = func(e interface{}) { got = e.(*kernel.Error) }

			a.Free(spec.ptr, layout)
			if got != spec.expErr {
				t.Errorf("[spec %d] expected panic with %v; got %v", specIndex, spec.expErr, got)
			}
		}
	})
}

func TestKernelHeap(t *testing.T) {
	defer func() { kernelHeap = BumpAllocator{} }()
	kernelHeap = BumpAllocator{}

	if _, err := Alloc(Layout{Size: 8, Align: 8}); err != errNotInitialized {
		t.Fatalf("expected errNotInitialized before Init; got %v", err)
	}

	region := physmem.MustMap(1 * int(mem.Kb))
	defer func() { _ = region.Unmap() }()
	start := region.Addr()
	if err := Init(start, mem.Size(region.Size())); err != nil {
		t.Fatal(err)
	}

	layout := Layout{Size: 8, Align: 8}
	addr, err := Alloc(layout)
	if err != nil || addr != start {
		t.Fatalf("expected first allocation at 0x%x; got 0x%x, %v", start, addr, err)
	}

	*(*uint64)(unsafe.Pointer(addr)) = 41
	if region.Words()[0] != 41 {
		t.Fatal("expected the allocation to be backed by the arena")
	}

	Free(addr, layout)
	if got := KernelStats(); got.Outstanding != 0 || got.Next != start {
		t.Fatalf("unexpected kernel heap stats %+v", got)
	}

	if Kernel() != Allocator(&kernelHeap) {
		t.Fatal("expected Kernel to expose the kernel heap")
	}
}

var defaultPanicFn = panicFn
