package mem

import (
	"bibos/machine/physmem"
	"testing"
)

func TestSizeConstants(t *testing.T) {
	if Kb != 1024 || Mb != 1024*1024 || Gb != 1024*1024*1024 {
		t.Fatal("unexpected size constant values")
	}

	if PageSize != 4096 {
		t.Fatalf("expected page size to be 4096; got %d", PageSize)
	}
}

func TestMemset(t *testing.T) {
	for _, size := range []Size{0, 1, 3, 64, 100, 4096} {
		region := physmem.MustMap(int(size) + 2)
		buf := region.Bytes()
		for i := range buf {
			buf[i] = 0xaa
		}

		if size != 0 {
			Memset(region.Addr()+1, 0x42, size)
		}

		if buf[0] != 0xaa || buf[len(buf)-1] != 0xaa {
			t.Fatalf("[size %d] expected Memset not to touch bytes outside the region", size)
		}

		for i := Size(1); i <= size; i++ {
			if buf[i] != 0x42 {
				t.Fatalf("[size %d] expected byte %d to be 0x42; got 0x%x", size, i, buf[i])
			}
		}

		_ = region.Unmap()
	}

	// zero-sized calls must not dereference the address
	Memset(0, 0x42, 0)
}

func TestMemcopy(t *testing.T) {
	const text = "the big brown fox"

	src, dst := physmem.MustMap(len(text)), physmem.MustMap(len(text))
	defer func() { _, _ = src.Unmap(), dst.Unmap() }()
	copy(src.Bytes(), text)

	Memcopy(src.Addr(), dst.Addr(), Size(len(text)))

	if got := string(dst.Bytes()); got != text {
		t.Fatalf("expected dst to be %q; got %q", text, got)
	}

	Memcopy(0, 0, 0)
}
