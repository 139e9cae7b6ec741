package gate

import (
	"bibos/kernel"
	"unsafe"
)

const (
	// DoubleFaultISTIndex is the interrupt stack table slot used by the
	// double fault handler so it can run even if the faulting context
	// overflowed its own stack.
	DoubleFaultISTIndex = uint8(1)

	// DoubleFaultStackSize is the size of the dedicated double fault stack.
	DoubleFaultStackSize = 5 * 4096

	istEntries = 7
)

var (
	errInvalidISTIndex = &kernel.Error{Module: "gate", Message: "interrupt stack table index must be in [1, 7]"}
	errEmptyStack      = &kernel.Error{Module: "gate", Message: "interrupt stack must not be empty"}

	// tss holds the task state segment loaded for the (only) CPU.
	tss TSS

	// doubleFaultStack backs IST slot 1. It is a static array because the
	// heap may not be available (or may be the culprit) when a double
	// fault occurs.
	doubleFaultStack [DoubleFaultStackSize]byte
)

// TSS models the 64-bit task state segment. Only the interrupt stack table is
// used; entries hold the top-of-stack address for each IST slot.
type TSS struct {
	IST [istEntries]uintptr
}

func init() {
	_ = SetInterruptStack(DoubleFaultISTIndex, doubleFaultStack[:])
}

// SetInterruptStack points the IST slot identified by index (1-based, as
// encoded in gate descriptors) to the top of the supplied stack. Stacks grow
// downwards so the stored address is the 16-byte aligned end of the slice.
func SetInterruptStack(index uint8, stack []byte) *kernel.Error {
	if index == 0 || index > istEntries {
		return errInvalidISTIndex
	}
	if len(stack) == 0 {
		return errEmptyStack
	}

	top := uintptr(unsafe.Pointer(&stack[0])) + uintptr(len(stack))
	tss.IST[index-1] = top &^ 15
	return nil
}

// InterruptStack returns the top-of-stack address for the IST slot or 0 if no
// stack has been configured.
func InterruptStack(index uint8) uintptr {
	if index == 0 || index > istEntries {
		return 0
	}
	return tss.IST[index-1]
}
