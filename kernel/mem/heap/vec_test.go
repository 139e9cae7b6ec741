package heap

import (
	"bibos/kernel"
	"bibos/kernel/mem"
	"bibos/machine/physmem"
	"testing"
)

// newTestArena returns an initialized allocator backed by size bytes of
// memory mapped outside the Go heap. The memory is released when the test
// ends.
func newTestArena(t *testing.T, size mem.Size) *BumpAllocator {
	region := physmem.MustMap(int(size))
	t.Cleanup(func() { _ = region.Unmap() })

	a := new(BumpAllocator)
	if err := a.Init(region.Addr(), size); err != nil {
		t.Fatal(err)
	}
	return a
}

func TestUint64Vec(t *testing.T) {
	a := newTestArena(t, 16*mem.Kb)
	start := a.Stats().HeapStart

	v := NewUint64Vec(a)
	if v.Len() != 0 || v.Cap() != 0 || v.Addr() != 0 {
		t.Fatal("expected a new vector not to allocate")
	}

	for i := 0; i < 500; i++ {
		if err := v.Push(uint64(i)); err != nil {
			t.Fatalf("[push %d] unexpected error: %v", i, err)
		}
	}

	if v.Len() != 500 || v.Cap() != 512 {
		t.Fatalf("expected len 500 and cap 512; got %d, %d", v.Len(), v.Cap())
	}

	for i := 0; i < 500; i++ {
		if got, err := v.Get(i); err != nil || got != uint64(i) {
			t.Fatalf("expected element %d to be %d; got %d, %v", i, i, got, err)
		}
	}

	for _, i := range []int{-1, 500} {
		if _, err := v.Get(i); err != errIndexOutOfRange {
			t.Fatalf("expected errIndexOutOfRange for index %d; got %v", i, err)
		}
	}

	// every outgrown buffer has been released
	if got := a.Stats().Outstanding; got != 1 {
		t.Fatalf("expected only the live buffer to be outstanding; got %d", got)
	}

	v.Drop()
	if v.Len() != 0 || v.Addr() != 0 {
		t.Fatal("expected Drop to reset the vector")
	}

	if got := a.Stats(); got.Outstanding != 0 || got.Next != start {
		t.Fatalf("expected the arena to be reclaimed after Drop; got %+v", got)
	}

	addr, err := a.Alloc(Layout{Size: 8, Align: 8})
	if err != nil || addr != start {
		t.Fatalf("expected re-allocation at the arena start 0x%x; got 0x%x, %v", start, addr, err)
	}
}

func TestUint64VecOutOfMemory(t *testing.T) {
	a := newTestArena(t, 256)
	v := NewUint64Vec(a)

	var (
		err    *kernel.Error
		pushed int
	)
	for ; pushed < 100; pushed++ {
		if err = v.Push(uint64(pushed)); err != nil {
			break
		}
	}

	if err != errOutOfMemory {
		t.Fatalf("expected errOutOfMemory; got %v", err)
	}

	// growing from 4 to 8 to 16 slots consumes 224 of the 256 bytes so the
	// next doubling does not fit
	if pushed != 16 || v.Len() != 16 {
		t.Fatalf("expected 16 values to fit; pushed %d, len %d", pushed, v.Len())
	}

	for i := 0; i < v.Len(); i++ {
		if got, _ := v.Get(i); got != uint64(i) {
			t.Fatalf("expected contents to survive a failed grow; element %d is %d", i, got)
		}
	}
}

func TestDropEmptyVec(t *testing.T) {
	a := newTestArena(t, 64)
	NewUint64Vec(a).Drop()

	if got := a.Stats().Outstanding; got != 0 {
		t.Fatalf("expected no outstanding allocations; got %d", got)
	}
}
