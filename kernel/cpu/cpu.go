// Package cpu exposes the processor primitives used by the rest of the
// kernel: the interrupt flag, halting, the CR2 fault address latch and port
// I/O.
//
// The kernel runs on a single core. Hardware interrupts are only delivered at
// the points where the processor would sample its interrupt line with the
// interrupt flag set: when interrupts get (re-)enabled and while the CPU
// waits in WaitForInterrupt. Interrupt handlers therefore never run in
// parallel with foreground code.
package cpu

import (
	"runtime"
	"sync/atomic"
)

// InterruptState captures the value of the interrupt flag so that it can be
// restored at the end of a masked section.
type InterruptState bool

// InterruptLine models the INTR/INTA handshake between the CPU and the
// external interrupt controller.
type InterruptLine interface {
	// Pending returns true if the controller currently asserts INTR.
	Pending() bool

	// Acknowledge performs an INTA cycle and returns the vector that the
	// controller wants delivered. It returns false if no unmasked request
	// is pending.
	Acknowledge() (uint8, bool)
}

var (
	interruptFlag uint32
	halted        uint32
	servicing     uint32
	cr2           uint64

	intrLine   InterruptLine
	dispatchFn func(vector uint8)
	idleHook   func()

	// wakeCh is signalled whenever a device raises an interrupt or the
	// machine is powered off.
	wakeCh = make(chan struct{}, 1)

	// haltFn parks the halted execution context forever. It is mocked by
	// tests.
	haltFn = runtime.Goexit
)

// EnableInterrupts sets the interrupt flag. Any interrupt that is pending at
// the controller is delivered before EnableInterrupts returns. Enabling
// interrupts on a halted CPU has no effect.
func EnableInterrupts() {
	if Halted() {
		return
	}

	atomic.StoreUint32(&interruptFlag, 1)
	serviceInterrupts()
}

// DisableInterrupts clears the interrupt flag.
func DisableInterrupts() {
	atomic.StoreUint32(&interruptFlag, 0)
}

// InterruptsEnabled returns true if the interrupt flag is set.
func InterruptsEnabled() bool {
	return atomic.LoadUint32(&interruptFlag) == 1
}

// SaveAndDisableInterrupts clears the interrupt flag and returns its previous
// value.
func SaveAndDisableInterrupts() InterruptState {
	return InterruptState(atomic.SwapUint32(&interruptFlag, 0) == 1)
}

// RestoreInterrupts sets the interrupt flag to a value previously returned by
// SaveAndDisableInterrupts.
func RestoreInterrupts(state InterruptState) {
	if state {
		EnableInterrupts()
	}
}

// WithoutInterrupts runs fn with the interrupt flag cleared and restores the
// previous flag value once fn returns or panics.
func WithoutInterrupts(fn func()) {
	state := SaveAndDisableInterrupts()
	defer RestoreInterrupts(state)
	fn()
}

// Halt stops instruction execution. Interrupts are masked first so the halted
// state is permanent. Calls to Halt never return.
func Halt() {
	DisableInterrupts()
	atomic.StoreUint32(&halted, 1)
	haltFn()
}

// Halted returns true once Halt has been invoked.
func Halted() bool {
	return atomic.LoadUint32(&halted) == 1
}

// WaitForInterrupt suspends execution until the interrupt controller raises
// an interrupt and delivers it. Waiting with the interrupt flag cleared can
// never be woken up so it is equivalent to calling Halt.
func WaitForInterrupt() {
	for {
		if Halted() || !InterruptsEnabled() {
			Halt()
			return
		}

		if serviceInterrupts() {
			return
		}

		if idleHook != nil {
			idleHook()
		}
		<-wakeCh
	}
}

// Interrupt wakes up a CPU blocked in WaitForInterrupt. Devices invoke it
// after raising a request at the interrupt controller.
func Interrupt() {
	select {
	case wakeCh <- struct{}{}:
	default:
	}
}

// PowerOff marks the CPU as halted and wakes it up so that the context
// blocked in WaitForInterrupt parks itself.
func PowerOff() {
	DisableInterrupts()
	atomic.StoreUint32(&halted, 1)
	Interrupt()
}

// Reset returns the processor to its power-on state: interrupts masked, not
// halted and no pending wake-up. Attached devices and the interrupt
// dispatcher are left in place.
func Reset() {
	atomic.StoreUint32(&interruptFlag, 0)
	atomic.StoreUint32(&halted, 0)
	atomic.StoreUint64(&cr2, 0)
	select {
	case <-wakeCh:
	default:
	}
}

// SetInterruptLine connects the CPU to an interrupt controller.
func SetInterruptLine(line InterruptLine) {
	intrLine = line
}

// SetInterruptDispatcher installs the function that routes an acknowledged
// vector to its handler. It is invoked when the interrupt descriptor table
// gets loaded.
func SetInterruptDispatcher(fn func(vector uint8)) {
	dispatchFn = fn
}

// SetIdleHook installs fn to be invoked each time WaitForInterrupt finds no
// pending interrupt and puts the CPU to sleep.
func SetIdleHook(fn func()) {
	idleHook = fn
}

// ReadCR2 returns the value stored in the CR2 register.
func ReadCR2() uint64 {
	return atomic.LoadUint64(&cr2)
}

// SetCR2 latches the linear address that caused a page fault.
func SetCR2(addr uint64) {
	atomic.StoreUint64(&cr2, addr)
}

// serviceInterrupts delivers pending interrupts for as long as the interrupt
// flag remains set. It returns true if at least one interrupt was delivered.
// Handlers restore the interrupt flag on return which re-enters
// EnableInterrupts; the servicing flag keeps those calls from recursing.
func serviceInterrupts() bool {
	if !atomic.CompareAndSwapUint32(&servicing, 0, 1) {
		return false
	}
	defer atomic.StoreUint32(&servicing, 0)

	var delivered bool
	for InterruptsEnabled() && !Halted() {
		line := intrLine
		if line == nil || !line.Pending() {
			break
		}

		vector, ok := line.Acknowledge()
		if !ok {
			break
		}

		// An interrupt that fires before the descriptor table is
		// loaded cannot be handled; the CPU triple-faults.
		if dispatchFn == nil {
			Halt()
			return delivered
		}

		dispatchFn(vector)
		delivered = true
	}

	return delivered
}
