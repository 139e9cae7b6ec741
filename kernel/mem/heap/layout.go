package heap

import "bibos/kernel"

var (
	errInvalidLayout = &kernel.Error{Module: "heap", Message: "alignment must be a non-zero power of two"}
)

// Layout describes the size and alignment of an allocation request.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// NewLayout returns a Layout after checking that align is a non-zero power
// of two.
func NewLayout(size, align uintptr) (Layout, *kernel.Error) {
	l := Layout{Size: size, Align: align}
	if !l.valid() {
		return Layout{}, errInvalidLayout
	}
	return l, nil
}

func (l Layout) valid() bool {
	return l.Align != 0 && l.Align&(l.Align-1) == 0
}

// alignUp rounds addr up to the next multiple of align. It returns false if
// the rounded address does not fit in a uintptr.
func alignUp(addr, align uintptr) (uintptr, bool) {
	mask := align - 1
	if addr > ^uintptr(0)-mask {
		return 0, false
	}
	return (addr + mask) &^ mask, true
}
