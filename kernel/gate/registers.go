package gate

import (
	"bibos/kernel/kfmt"
	"io"
)

const (
	// selectorIDT is set in a selector error code when the index refers to
	// an interrupt descriptor table entry.
	selectorIDT   = 1 << 1
	selectorShift = 3

	rflagsIF = 1 << 9
)

// Registers is the machine state handed to a handler. The general purpose
// registers are only populated when a caller supplies them; Raise, Int3 and
// hardware interrupts fill in the return frame from the interrupted call site.
type Registers struct {
	RAX uint64
	RBX uint64
	RCX uint64
	RDX uint64
	RSI uint64
	RDI uint64
	RBP uint64
	R8  uint64
	R9  uint64
	R10 uint64
	R11 uint64
	R12 uint64
	R13 uint64
	R14 uint64
	R15 uint64

	// Info holds the error code of the exception, the vector number of a
	// hardware interrupt, or, when Dispatch promotes a vector without a
	// handler to a general protection fault, a selector error code naming
	// that vector (see Vector).
	Info uint64

	// Return frame
	RIP    uint64
	CS     uint64
	RFlags uint64
	RSP    uint64
	SS     uint64
}

// selectorFor returns the selector error code that names an IDT vector.
func selectorFor(num InterruptNumber) uint64 {
	return uint64(num)<<selectorShift | selectorIDT
}

// Vector decodes Info as a selector error code. It returns false if Info does
// not refer to an IDT entry.
func (r *Registers) Vector() (InterruptNumber, bool) {
	if r.Info&selectorIDT == 0 {
		return 0, false
	}
	return InterruptNumber(r.Info >> selectorShift), true
}

var generalNames = [...]string{
	"RAX", "RBX", "RCX", "RDX", "RSI", "RDI", "RBP", "R8 ",
	"R9 ", "R10", "R11", "R12", "R13", "R14", "R15",
}

// DumpTo writes the registers to w, two per line, followed by the return
// frame. The output never needs the allocator.
func (r *Registers) DumpTo(w io.Writer) {
	general := [len(generalNames)]uint64{
		r.RAX, r.RBX, r.RCX, r.RDX, r.RSI, r.RDI, r.RBP, r.R8,
		r.R9, r.R10, r.R11, r.R12, r.R13, r.R14, r.R15,
	}

	for i := 0; i < len(general); i += 2 {
		kfmt.Fprintf(w, "%s = %16x", generalNames[i], general[i])
		if i+1 < len(general) {
			kfmt.Fprintf(w, " %s = %16x", generalNames[i+1], general[i+1])
		}
		kfmt.Fprintf(w, "\n")
	}

	kfmt.Fprintf(w, "\nRIP = %16x CS  = %16x\n", r.RIP, r.CS)
	kfmt.Fprintf(w, "RSP = %16x SS  = %16x\n", r.RSP, r.SS)
	kfmt.Fprintf(w, "RFL = %16x", r.RFlags)
	if r.RFlags&rflagsIF != 0 {
		kfmt.Fprintf(w, " (IF)")
	}
	kfmt.Fprintf(w, "\n")
}
