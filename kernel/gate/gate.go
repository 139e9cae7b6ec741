// Package gate implements the interrupt descriptor table: the registry that
// maps each interrupt vector to its handler and the delivery rules the CPU
// applies when a vector fires.
package gate

import (
	"bibos/kernel"
	"bibos/kernel/cpu"
	"bibos/kernel/kfmt"
	"bibos/kernel/sync"
	"runtime"
	"sync/atomic"
	"unsafe"
)

// Handler is invoked when the vector it is registered for fires. Handlers run
// with interrupts masked.
type Handler func(*Registers)

type gateEntry struct {
	handler  Handler
	istIndex uint8
}

type faultState uint8

const (
	noFault faultState = iota
	inFault
	inDoubleFault
)

var (
	idt       [256]gateEntry
	idtLoaded uint32
	idtLock   sync.Spinlock

	// activeFault tracks whether a fault or double fault handler is
	// currently running. Handlers run on the single foreground context so
	// no locking is required.
	activeFault faultState

	// activeStack is the IST stack the running handler was switched to.
	activeStack uintptr

	// Overridden by tests.
	cpuHaltFn                  = cpu.Halt
	saveAndDisableInterruptsFn = cpu.SaveAndDisableInterrupts
	restoreInterruptsFn        = cpu.RestoreInterrupts

	errTableLoaded      = &kernel.Error{Module: "gate", Message: "interrupt descriptor table already loaded"}
	errDuplicateHandler = &kernel.Error{Module: "gate", Message: "handler already registered for interrupt"}
	errNoInterruptStack = &kernel.Error{Module: "gate", Message: "no stack configured for interrupt stack table index"}
)

// HandleInterrupt ensures that the provided handler will be invoked when a
// particular interrupt number occurs. The value of istIndex selects the
// interrupt stack table slot to switch to (if 0 then the handler runs on the
// interrupted stack). Handlers must be registered before Init loads the
// table.
func HandleInterrupt(num InterruptNumber, istIndex uint8, handler Handler) *kernel.Error {
	if istIndex != 0 && InterruptStack(istIndex) == 0 {
		return errNoInterruptStack
	}

	idtLock.Acquire()
	defer idtLock.Release()

	switch {
	case atomic.LoadUint32(&idtLoaded) == 1:
		return errTableLoaded
	case idt[num].handler != nil:
		return errDuplicateHandler
	}

	idt[num] = gateEntry{handler: handler, istIndex: istIndex}
	return nil
}

// Init loads the interrupt descriptor table and routes hardware interrupts
// acknowledged by the CPU through it. The table can only be loaded once.
func Init() *kernel.Error {
	if !atomic.CompareAndSwapUint32(&idtLoaded, 0, 1) {
		return errTableLoaded
	}

	cpu.SetInterruptDispatcher(dispatchHardware)
	return nil
}

// HandlerStack returns the top of the interrupt stack the running handler was
// switched to or 0 if it runs on the interrupted stack.
func HandlerStack() uintptr {
	return activeStack
}

// Dispatch delivers num the way the CPU would:
//   - a vector without a handler raises a general protection fault carrying
//     the vector in its selector error code; a fault without a handler
//     becomes a double fault.
//   - a fault raised while a fault handler is running becomes a double
//     fault and a fault raised while the double fault handler is running
//     resets (halts) the machine.
//   - the handler runs with interrupts masked on the stack selected by its
//     IST index and the interrupt flag is restored when it returns.
//
// Nothing is delivered once the CPU has halted.
func Dispatch(num InterruptNumber, regs *Registers) {
	if cpu.Halted() {
		return
	}

	if atomic.LoadUint32(&idtLoaded) == 0 {
		tripleFault(num)
		return
	}

	num, ok := resolve(num, regs)
	if ok && isFault(num) {
		switch activeFault {
		case inDoubleFault:
			ok = false
		case inFault:
			num, regs.Info = DoubleFault, 0
			ok = idt[DoubleFault].handler != nil
		}
	}

	if !ok {
		tripleFault(num)
		return
	}

	deliver(num, regs)
}

// resolve maps num to the vector whose handler will run. It returns false if
// no handler can be found at all.
func resolve(num InterruptNumber, regs *Registers) (InterruptNumber, bool) {
	if idt[num].handler != nil {
		return num, true
	}

	if num != DoubleFault && num != GPFException && idt[GPFException].handler != nil {
		regs.Info = selectorFor(num)
		return GPFException, true
	}

	regs.Info = 0
	return DoubleFault, num != DoubleFault && idt[DoubleFault].handler != nil
}

func deliver(num InterruptNumber, regs *Registers) {
	entry := &idt[num]

	prevFault, prevStack := activeFault, activeStack
	switch {
	case num == DoubleFault:
		activeFault = inDoubleFault
	case isFault(num) && activeFault == noFault:
		activeFault = inFault
	}
	if entry.istIndex != 0 {
		activeStack = InterruptStack(entry.istIndex)
	}

	state := saveAndDisableInterruptsFn()
	entry.handler(regs)

	activeFault, activeStack = prevFault, prevStack
	restoreInterruptsFn(state)
}

func tripleFault(num InterruptNumber) {
	kfmt.Eprintf("triple fault while delivering vector %d (%s); resetting CPU\n", uint8(num), num.Name())
	cpuHaltFn()
}

// dispatchHardware is installed as the CPU interrupt dispatcher.
func dispatchHardware(vector uint8) {
	var regs Registers
	snapshot(&regs, 2)
	regs.Info = uint64(vector)
	Dispatch(InterruptNumber(vector), &regs)
}

// Raise delivers num as if the instruction at the call site raised it with
// the supplied error code.
func Raise(num InterruptNumber, errorCode uint64) {
	var regs Registers
	snapshot(&regs, 2)
	regs.Info = errorCode
	Dispatch(num, &regs)
}

// Int3 triggers a breakpoint exception.
func Int3() {
	var regs Registers
	snapshot(&regs, 2)
	Dispatch(Breakpoint, &regs)
}

// snapshot fills in the return frame of regs using the caller skip frames up
// the stack as the interrupted instruction.
func snapshot(regs *Registers, skip int) {
	if pc, _, _, ok := runtime.Caller(skip); ok {
		regs.RIP = uint64(pc)
	}

	var marker byte
	regs.RSP = uint64(uintptr(unsafe.Pointer(&marker)))
	regs.CS = 0x08
	regs.SS = 0x10
	if cpu.InterruptsEnabled() {
		regs.RFlags = 0x202
	} else {
		regs.RFlags = 0x2
	}
}
