package kfmt

import (
	"bibos/kernel"
	"bibos/kernel/cpu"
)

var (
	// cpuHaltFn is mocked by tests.
	cpuHaltFn = cpu.Halt

	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// Panic outputs the supplied error (if not nil) to the diagnostic sink and
// halts the CPU. Calls to Panic never return.
func Panic(e interface{}) {
	var err *kernel.Error

	switch t := e.(type) {
	case *kernel.Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	Eprintf("\n-----------------------------------\n")
	if err != nil {
		Eprintf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	Eprintf("*** kernel panic: system halted ***")
	Eprintf("\n-----------------------------------\n")

	cpuHaltFn()
}
