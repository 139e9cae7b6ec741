package gate

// InterruptNumber describes an x86 interrupt/exception/trap slot.
type InterruptNumber uint8

const (
	// DivideByZero occurs when dividing any number by 0 using the DIV or
	// IDIV instruction.
	DivideByZero = InterruptNumber(0)

	// Debug occurs when a debug condition (single step, hardware
	// breakpoint) is met.
	Debug = InterruptNumber(1)

	// NMI (non-maskable-interrupt) is a hardware interrupt that indicates
	// issues with RAM or unrecoverable hardware problems.
	NMI = InterruptNumber(2)

	// Breakpoint is raised by the INT3 instruction.
	Breakpoint = InterruptNumber(3)

	// Overflow occurs when the INTO instruction is executed while the
	// overflow flag is set.
	Overflow = InterruptNumber(4)

	// BoundRangeExceeded occurs when the BOUND instruction is invoked with
	// an index out of range.
	BoundRangeExceeded = InterruptNumber(5)

	// InvalidOpcode occurs when the CPU attempts to execute an invalid or
	// undefined instruction opcode.
	InvalidOpcode = InterruptNumber(6)

	// DeviceNotAvailable occurs when the CPU attempts to execute an
	// FPU/MMX/SSE instruction while no FPU is available.
	DeviceNotAvailable = InterruptNumber(7)

	// DoubleFault occurs when an unhandled exception occurs or when an
	// exception occurs within a running exception handler.
	DoubleFault = InterruptNumber(8)

	// InvalidTSS occurs when the TSS points to an invalid task segment
	// selector.
	InvalidTSS = InterruptNumber(10)

	// SegmentNotPresent occurs when the CPU attempts to invoke a present
	// gate with an invalid stack segment selector.
	SegmentNotPresent = InterruptNumber(11)

	// StackSegmentFault occurs when attempting to push/pop from a
	// non-canonical stack address or when the stack base/limit checks fail.
	StackSegmentFault = InterruptNumber(12)

	// GPFException occurs when a general protection fault occurs. It is
	// also raised when the CPU looks up a vector without a present gate.
	GPFException = InterruptNumber(13)

	// PageFaultException occurs when a page directory table (PDT) or one
	// of its entries is not present or when a privilege and/or RW
	// protection check fails.
	PageFaultException = InterruptNumber(14)

	// FloatingPointException occurs while invoking an FP instruction with
	// an unmasked FP exception pending.
	FloatingPointException = InterruptNumber(16)

	// AlignmentCheck occurs when alignment checks are enabled and an
	// unaligned memory access is performed.
	AlignmentCheck = InterruptNumber(17)

	// MachineCheck occurs when the CPU detects internal errors such as
	// memory-, bus- or cache-related errors.
	MachineCheck = InterruptNumber(18)

	// SIMDFloatingPointException occurs when an unmasked SSE exception
	// occurs while CR4.OSXMMEXCPT is set to 1.
	SIMDFloatingPointException = InterruptNumber(19)

	// VirtualizationException is raised by EPT violations.
	VirtualizationException = InterruptNumber(20)

	// ControlProtectionException is raised by shadow stack violations.
	ControlProtectionException = InterruptNumber(21)

	// SecurityException is raised by SVM security events.
	SecurityException = InterruptNumber(30)
)

var exceptionNames = [32]string{
	DivideByZero:               "DIVIDE BY ZERO",
	Debug:                      "DEBUG",
	NMI:                        "NMI",
	Breakpoint:                 "BREAKPOINT",
	Overflow:                   "OVERFLOW",
	BoundRangeExceeded:         "BOUND RANGE EXCEEDED",
	InvalidOpcode:              "INVALID OPCODE",
	DeviceNotAvailable:         "DEVICE NOT AVAILABLE",
	DoubleFault:                "DOUBLE FAULT",
	InvalidTSS:                 "INVALID TSS",
	SegmentNotPresent:          "SEGMENT NOT PRESENT",
	StackSegmentFault:          "STACK SEGMENT FAULT",
	GPFException:               "GENERAL PROTECTION FAULT",
	PageFaultException:         "PAGE FAULT",
	FloatingPointException:     "X87 FLOATING POINT",
	AlignmentCheck:             "ALIGNMENT CHECK",
	MachineCheck:               "MACHINE CHECK",
	SIMDFloatingPointException: "SIMD FLOATING POINT",
	VirtualizationException:    "VIRTUALIZATION",
	ControlProtectionException: "CONTROL PROTECTION",
	SecurityException:          "SECURITY",
}

// Name returns a human readable description of the vector.
func (n InterruptNumber) Name() string {
	if n < 32 {
		if name := exceptionNames[n]; name != "" {
			return name
		}
		return "RESERVED"
	}
	return "INTERRUPT"
}

// isFault reports whether the vector is a CPU exception that takes part in
// double-fault promotion. Debug, NMI, breakpoint and overflow are benign.
func isFault(n InterruptNumber) bool {
	if n >= 32 {
		return false
	}
	switch n {
	case Debug, NMI, Breakpoint, Overflow:
		return false
	}
	return true
}
