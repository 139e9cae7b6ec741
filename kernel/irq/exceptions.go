package irq

import (
	"bibos/kernel/gate"
	"bibos/kernel/kfmt"
)

// Page fault error code bits.
const (
	pfProtectionViolation = 1 << 0
	pfCausedByWrite       = 1 << 1
	pfUserMode            = 1 << 2
	pfMalformedTable      = 1 << 3
	pfInstructionFetch    = 1 << 4
	pfProtectionKey       = 1 << 5
	pfShadowStack         = 1 << 6
	pfSGX                 = 1 << 15
)

var pageFaultReasons = []struct {
	bit  uint64
	name string
}{
	{pfProtectionViolation, "PROTECTION_VIOLATION"},
	{pfCausedByWrite, "CAUSED_BY_WRITE"},
	{pfUserMode, "USER_MODE"},
	{pfMalformedTable, "MALFORMED_TABLE"},
	{pfInstructionFetch, "INSTRUCTION_FETCH"},
	{pfProtectionKey, "PROTECTION_KEY"},
	{pfShadowStack, "SHADOW_STACK"},
	{pfSGX, "SGX"},
}

// dumpRegisters prints the register snapshot to the diagnostic sink indented
// by two spaces.
func dumpRegisters(regs *gate.Registers) {
	w := kfmt.PrefixWriter{Sink: kfmt.GetDiagnosticSink(), Prefix: []byte("  ")}
	regs.DumpTo(&w)
}

func breakpointHandler(regs *gate.Registers) {
	kfmt.Eprintf("EXCEPTION: BREAKPOINT\n")
	dumpRegisters(regs)
}

func doubleFaultHandler(regs *gate.Registers) {
	kfmt.Eprintf("EXCEPTION: DOUBLE FAULT\n")
	dumpRegisters(regs)
	panicFn(errDoubleFault)
}

func pageFaultHandler(regs *gate.Registers) {
	kfmt.Eprintf("EXCEPTION: PAGE FAULT\n")
	kfmt.Eprintf("Accessed Address: 0x%16x\n", readCR2Fn())
	kfmt.Eprintf("Error Code: 0x%x", regs.Info)

	sep := " ("
	for _, reason := range pageFaultReasons {
		if regs.Info&reason.bit == 0 {
			continue
		}
		kfmt.Eprintf("%s%s", sep, reason.name)
		sep = " | "
	}
	if sep != " (" {
		kfmt.Eprintf(")")
	} else {
		kfmt.Eprintf(" (read from non-present page)")
	}
	kfmt.Eprintf("\n")

	dumpRegisters(regs)
	haltFn()
}

func generalProtectionFaultHandler(regs *gate.Registers) {
	kfmt.Eprintf("EXCEPTION: GENERAL PROTECTION FAULT\n")
	kfmt.Eprintf("Error Code: 0x%x", regs.Info)
	if vec, ok := regs.Vector(); ok {
		kfmt.Eprintf(" (vector %d)", uint8(vec))
	}
	kfmt.Eprintf("\n")

	dumpRegisters(regs)
	haltFn()
}
